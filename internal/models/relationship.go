package models

import "time"

// Relationship is a directed follow edge: FollowerID follows FollowedID.
type Relationship struct {
	ID         string    `json:"id"`
	FollowerID string    `json:"followerId"`
	FollowedID string    `json:"followedId"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Validate requires both ends of the edge.
func (r Relationship) Validate() ValidationErrors {
	var errs ValidationErrors
	if r.FollowerID == "" {
		errs.Add("Follower", "can't be blank")
	}
	if r.FollowedID == "" {
		errs.Add("Followed", "can't be blank")
	}
	return errs
}
