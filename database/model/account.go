// Package model defines the records persisted by authgate.
package model

// Account is a registered user. Email is the login key.
type Account struct {
	Id       int    `json:"id" gorm:"primaryKey;autoIncrement"`
	Username string `json:"username" gorm:"size:255"`
	Email    string `json:"email" gorm:"size:255;uniqueIndex;not null"`
	Phone    string `json:"phone" gorm:"size:255"`
	Password string `json:"-" gorm:"size:255;not null"` // bcrypt hash, never plaintext
}

// TableName keeps the table name used by earlier deployments.
func (Account) TableName() string {
	return "authentication"
}
