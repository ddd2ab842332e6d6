package types

// Status is a type for the lifecycle status of a resource in the database
// This is used to determine if a resource should be included in queries
// Any changes to this type should be reflected in the database schema by running migrations
type Status string

const (
	StatusPublished Status = "published"
	StatusDeleted   Status = "deleted"
	StatusArchived  Status = "archived"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) Validate() bool {
	switch s {
	case StatusPublished, StatusDeleted, StatusArchived:
		return true
	}
	return false
}
