package course

import "gorm.io/gorm"

// Module represents a top-level unit within a course
type Module struct {
	gorm.Model
	CourseID   uint   `json:"course_id" gorm:"index;not null"`
	Title      string `json:"title"`
	OrderIndex int    `json:"order_index" gorm:"default:0"` // Module order in course
	IsDeleted  bool   `gorm:"default:false"`
}

// Section groups lessons within a module
type Section struct {
	gorm.Model
	ModuleID   uint   `json:"module_id" gorm:"index;not null"`
	Title      string `json:"title"`
	OrderIndex int    `json:"order_index" gorm:"default:0"` // Section order in module
	IsDeleted  bool   `gorm:"default:false"`
}
