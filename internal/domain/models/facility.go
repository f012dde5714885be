package models

// Facility 表示设施及其围栏信息
type Facility struct {
	BaseModel
	Name string  `gorm:"type:varchar(100);uniqueIndex;not null" json:"name"`
	Lat  float64 `gorm:"not null" json:"lat"`
	Lon  float64 `gorm:"not null" json:"lon"`
	// GeofenceRadius 围栏半径（米），员工上班期间离开该范围触发自动打卡下班
	GeofenceRadius float64 `gorm:"not null;default:150" json:"geofence_radius"`
}
