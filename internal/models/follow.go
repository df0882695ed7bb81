package models

import "time"

// Follow is a directed edge: Follower follows Followee.
// The composite primary key makes a duplicate edge impossible.
type Follow struct {
	FollowerID uint      `gorm:"primaryKey;autoIncrement:false"`
	FolloweeID uint      `gorm:"primaryKey;autoIncrement:false;index"`
	Follower   User      `gorm:"foreignKey:FollowerID"`
	Followee   User      `gorm:"foreignKey:FolloweeID"`
	CreatedAt  time.Time `gorm:"index"`
}
