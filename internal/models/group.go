// internal/models/group.go
package models

// IPGroup is a named grouping of minted assets for one creator. Assets carry
// the group id as a plain foreign key rather than a join table.
type IPGroup struct {
	BaseModel
	GroupID        string `json:"group_id" gorm:"size:100;uniqueIndex;not null"`
	Name           string `json:"name" gorm:"size:255;not null"`
	Description    string `json:"description,omitempty" gorm:"type:text"`
	CreatorAddress string `json:"creator_address" gorm:"size:42;index"`
	MemberCount    int    `json:"member_count" gorm:"default:0"`
	CreationTxHash string `json:"creation_tx_hash,omitempty" gorm:"size:66"`
	Network        string `json:"network,omitempty" gorm:"size:50"`
	GroupMetadata  JSONB  `json:"group_metadata,omitempty" gorm:"type:jsonb"`
}

func (IPGroup) TableName() string {
	return "ip_groups"
}
