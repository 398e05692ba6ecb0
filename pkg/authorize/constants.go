package authorize

type Action string
type Resource string
type Role string

const (
	ActionCreate Action = "create"
	ActionRead   Action = "read"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
	ActionList   Action = "list"

	// session lifecycle
	ActionRequest    Action = "request"
	ActionConfirm    Action = "confirm"
	ActionStart      Action = "start"
	ActionComplete   Action = "complete"
	ActionNoShow     Action = "no_show"
	ActionCancel     Action = "cancel"
	ActionReschedule Action = "reschedule"
	ActionRate       Action = "rate"
	ActionPay        Action = "pay"

	WildcardAction Action = "*"
)

var KnownActions = map[Action]struct{}{
	ActionCreate: {}, ActionRead: {}, ActionUpdate: {}, ActionDelete: {}, ActionList: {},
	ActionRequest: {}, ActionConfirm: {}, ActionStart: {}, ActionComplete: {}, ActionNoShow: {},
	ActionCancel: {}, ActionReschedule: {}, ActionRate: {}, ActionPay: {},
}

const (
	ResourceSession     Resource = "session"
	ResourceWindow      Resource = "availability_window"
	ResourceSlot        Resource = "slot"
	ResourceSessionType Resource = "session_type"
	ResourceTherapist   Resource = "therapist"
	ResourceStats       Resource = "stats"
	ResourceNote        Resource = "session_note"
	ResourceReminder    Resource = "session_reminder"

	WildcardResource Resource = "*"
)

var KnownResources = map[Resource]struct{}{
	ResourceSession: {}, ResourceWindow: {}, ResourceSlot: {}, ResourceSessionType: {},
	ResourceTherapist: {}, ResourceStats: {}, ResourceNote: {}, ResourceReminder: {},
}

// Roles match the role claim carried by access tokens.
const (
	RoleClient    Role = "client"
	RoleTherapist Role = "therapist"
	RoleAdmin     Role = "admin"
)

var KnownRoles = map[Role]struct{}{
	RoleClient: {}, RoleTherapist: {}, RoleAdmin: {},
}

type Permission struct {
	Role     Role
	Resource Resource
	Action   Action
}

// DefaultPolicies is the baseline RBAC policy. Ownership checks (a client
// touching only its own sessions) live in the services.
var DefaultPolicies = []Permission{
	{RoleClient, ResourceTherapist, ActionRead},
	{RoleClient, ResourceTherapist, ActionList},
	{RoleClient, ResourceSlot, ActionRead},
	{RoleClient, ResourceSessionType, ActionList},
	{RoleClient, ResourceStats, ActionRead},
	{RoleClient, ResourceSession, ActionRequest},
	{RoleClient, ResourceSession, ActionRead},
	{RoleClient, ResourceSession, ActionList},
	{RoleClient, ResourceSession, ActionCancel},
	{RoleClient, ResourceSession, ActionReschedule},
	{RoleClient, ResourceSession, ActionRate},
	{RoleClient, ResourceNote, ActionRead},

	{RoleTherapist, ResourceTherapist, WildcardAction},
	{RoleTherapist, ResourceSlot, ActionRead},
	{RoleTherapist, ResourceSessionType, ActionList},
	{RoleTherapist, ResourceStats, ActionRead},
	{RoleTherapist, ResourceWindow, WildcardAction},
	{RoleTherapist, ResourceSession, WildcardAction},
	{RoleTherapist, ResourceNote, WildcardAction},
	{RoleTherapist, ResourceReminder, WildcardAction},

	{RoleAdmin, WildcardResource, WildcardAction},
}
