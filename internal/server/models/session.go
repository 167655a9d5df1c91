package models

import "time"

// ChatSession is one dream thread. CreatedAt is always UTC.
type ChatSession struct {
	ID        int64
	UserID    int64
	CreatedAt time.Time
}
