package database

import (
	"linkup/internal/core/connection"
	"linkup/internal/core/fanoutqueue"
	"linkup/internal/core/follower"
	"linkup/internal/core/post"
	"linkup/internal/core/profile"
	"linkup/internal/core/user"

	"gorm.io/gorm"
)

// Models lists every table in creation order.
func Models() []interface{} {
	return []interface{}{
		&user.User{},
		&user.PasswordResetCode{},
		&profile.Profile{},
		&post.Post{},
		&post.Media{},
		&post.Comment{},
		&post.Reaction{},
		&follower.Follower{},
		&connection.Connection{},
		&connection.Request{},
		&fanoutqueue.FanoutQueue{},
	}
}

func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}
