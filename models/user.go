package models

// User roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
)

// Table name for DynamoDB
const UserProfilesTable = "UserProfiles"

// Principal is the authenticated identity attached to a request by the
// auth middleware. Token issuance lives outside this service.
type Principal struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Role   string `json:"role"`
}

// CohortKey is the set of attributes that determines automatic group
// membership. Matching is exact equality on all four fields.
type CohortKey struct {
	PassingYear int    `dynamodbav:"passingYear" json:"passingYear"`
	Department  string `dynamodbav:"department" json:"department"`
	Section     string `dynamodbav:"section" json:"section"`
	School      string `dynamodbav:"school" json:"school"`
}

// Complete reports whether all cohort fields are present.
func (k CohortKey) Complete() bool {
	return k.PassingYear != 0 && k.Department != "" && k.Section != "" && k.School != ""
}

// UserProfile represents a registered user stored in DynamoDB.
// Cohort attributes are only set for students and are immutable after
// registration.
type UserProfile struct {
	UserID      string `dynamodbav:"userId" json:"userId"` // ✅ Partition Key
	Name        string `dynamodbav:"name" json:"name"`
	Email       string `dynamodbav:"email" json:"email"`
	Role        string `dynamodbav:"role" json:"role"` // student | teacher
	PassingYear int    `dynamodbav:"passingYear,omitempty" json:"passingYear,omitempty"`
	Department  string `dynamodbav:"department,omitempty" json:"department,omitempty"`
	Section     string `dynamodbav:"section,omitempty" json:"section,omitempty"`
	School      string `dynamodbav:"school,omitempty" json:"school,omitempty"`
	CreatedAt   string `dynamodbav:"createdAt" json:"createdAt"`
}

// Cohort returns the student's cohort key.
func (u UserProfile) Cohort() CohortKey {
	return CohortKey{
		PassingYear: u.PassingYear,
		Department:  u.Department,
		Section:     u.Section,
		School:      u.School,
	}
}
