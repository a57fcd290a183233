package domain

import "time"

// Record 表示一条持久化记录。ID 由服务端生成，创建后不可变。
type Record struct {
	ID                 string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Subject            string    `json:"subject" gorm:"type:varchar(500);index"`
	Content            string    `json:"content" gorm:"type:text"`
	Recipient          string    `json:"recipient" gorm:"type:varchar(255)"`
	SenderEmailAddress string    `json:"sender_email_address" gorm:"type:varchar(255)"`
	CreatedAt          time.Time `json:"createdAt"`
}
