package domain

// Group is a directory group with its direct members.
type Group struct {
	Name        string   `json:"name"`
	DN          string   `json:"distinguishedName"`
	Description string   `json:"description,omitempty"`
	Members     []string `json:"members"`
}

// MembershipResult reports whether a membership edit changed the directory.
// Changed=false means the requested state already held.
type MembershipResult struct {
	GroupDN string
	UserDN  string
	Changed bool
}

// ModifyOp is a single attribute change within a directory modify request.
type ModifyOp struct {
	Kind      ModifyKind
	Attribute string
	Values    []string
}

// ModifyKind enumerates supported modify operations.
type ModifyKind string

const (
	ModifyAdd     ModifyKind = "add"
	ModifyDelete  ModifyKind = "delete"
	ModifyReplace ModifyKind = "replace"
)

// SearchScope is the depth of a directory search.
type SearchScope string

const (
	ScopeBase    SearchScope = "base"
	ScopeOne     SearchScope = "one"
	ScopeSubtree SearchScope = "sub"
)
