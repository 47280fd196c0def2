package store

// User is an account row. Passwords stay inside the store layer; callers
// receive the row as-is and must not serialize the password outward.
type User struct {
	ID          string
	Username    string
	DisplayName string
	Password    string
	AvatarURL   string
	Phone       string
	Bio         string
	Status      string
	Kind        string
	LastSeen    int64
	DeletedAt   int64
	CreatedAt   int64
	UpdatedAt   int64
}

// Chat is a conversation row with its cached last-message pointer and
// member count.
type Chat struct {
	ID            string
	Type          string
	Title         string
	AvatarURL     string
	Description   string
	MemberCount   int
	LastMessageID string
	LastMessageAt int64
	CreatedBy     string
	DeletedAt     int64
	CreatedAt     int64
	UpdatedAt     int64
}

// Member joins a user to a chat with a role. A row with LeftAt == 0 is an
// active membership.
type Member struct {
	ID       string
	ChatID   string
	UserID   string
	Role     string
	JoinedAt int64
	LeftAt   int64
}

// Message is one message row. DeletedAt marks a soft-deleted message that
// list and search no longer return.
type Message struct {
	ID              string
	ChatID          string
	SenderID        string
	Content         string
	Type            string
	ReplyToID       string
	ForwardedFromID string
	Edited          bool
	EditedAt        int64
	Read            bool
	DeletedAt       int64
	CreatedAt       int64
	UpdatedAt       int64
}

// ChatUserSettings is the per-(user, chat) projection: pin/mute/archive
// flags, the read acknowledgement and the unread counter. At most one row
// per pair, created lazily on first relevant event.
type ChatUserSettings struct {
	ID                string
	UserID            string
	ChatID            string
	Pinned            bool
	Muted             bool
	Archived          bool
	LastReadMessageID string
	LastReadAt        int64
	UnreadCount       int
	UpdatedAt         int64
}

// Contact is one directed relationship row. Accepted relationships always
// exist in both directions.
type Contact struct {
	ID            string
	UserID        string
	ContactUserID string
	Nickname      string
	Blocked       bool
	Favorite      bool
	CreatedAt     int64
}

// ContactRequest is a directed request with a finite-state lifecycle,
// unique per ordered (from, to) pair.
type ContactRequest struct {
	ID         string
	FromUserID string
	ToUserID   string
	Message    string
	Status     string
	CreatedAt  int64
	UpdatedAt  int64
}

// Contact request statuses. Pending is the only non-terminal state; a
// re-request reopens a terminal row back to pending.
const (
	RequestPending   = "pending"
	RequestAccepted  = "accepted"
	RequestRejected  = "rejected"
	RequestCancelled = "cancelled"
)

// Member roles.
const (
	RoleOwner  = "owner"
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Chat types.
const (
	ChatDirect  = "direct"
	ChatGroup   = "group"
	ChatChannel = "channel"
)
