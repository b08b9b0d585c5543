package models

// Table and index names for DynamoDB
const (
	GroupsTable  = "Groups"
	CreatorIndex = "CreatorIndex" // GSI: createdBy (PK), createdAt (SK)
)

// Group represents a cohort chat group stored in DynamoDB.
// Members is a membership snapshot taken at creation/refresh time, not a
// live view: students who change cohort attributes stay members until an
// explicit refresh recomputes the set.
type Group struct {
	GroupID     string `dynamodbav:"groupId" json:"groupId"` // ✅ Partition Key
	Name        string `dynamodbav:"name" json:"name"`
	Description string `dynamodbav:"description,omitempty" json:"description,omitempty"`

	// Matching criteria
	PassingYear int    `dynamodbav:"passingYear" json:"passingYear"`
	Department  string `dynamodbav:"department" json:"department"`
	Section     string `dynamodbav:"section" json:"section"`
	School      string `dynamodbav:"school" json:"school"`

	CreatedBy string   `dynamodbav:"createdBy" json:"createdBy"`
	Members   []string `dynamodbav:"members,stringset,omitempty" json:"members"` // ✅ String set so ADD is a union
	IsActive  bool     `dynamodbav:"isActive" json:"isActive"`
	CreatedAt string   `dynamodbav:"createdAt" json:"createdAt"`
	UpdatedAt string   `dynamodbav:"updatedAt" json:"updatedAt"`
}

// Cohort returns the group's matching criteria.
func (g Group) Cohort() CohortKey {
	return CohortKey{
		PassingYear: g.PassingYear,
		Department:  g.Department,
		Section:     g.Section,
		School:      g.School,
	}
}

// HasMember reports whether userID is in the membership snapshot.
func (g Group) HasMember(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}

// MemberInfo is resolved member display data returned by the group view.
type MemberInfo struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

// GroupView is a Group with creator/member display info resolved.
type GroupView struct {
	Group
	CreatorName string       `json:"creatorName"`
	MemberInfo  []MemberInfo `json:"memberInfo"`
}
