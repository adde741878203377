package domain

import (
	"time"
)

// 当前位置（三个互斥取值）
const (
	LocationVillage = "village"
	LocationCity    = "city"
	LocationAbroad  = "abroad"
)

// 性别
const (
	GenderMale   = "male"
	GenderFemale = "female"
	GenderOther  = "other"
)

// 职业
const (
	OccupationStudent    = "student"
	OccupationJob        = "job"
	OccupationBusiness   = "business"
	OccupationFarming    = "farming"
	OccupationUnemployed = "unemployed"
)

// IsValidLocation 位置枚举校验
func IsValidLocation(location string) bool {
	switch location {
	case LocationVillage, LocationCity, LocationAbroad:
		return true
	}
	return false
}

// IsValidGender 性别枚举校验
func IsValidGender(gender string) bool {
	switch gender {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// IsValidOccupation 职业枚举校验
func IsValidOccupation(occupation string) bool {
	switch occupation {
	case OccupationStudent, OccupationJob, OccupationBusiness,
		OccupationFarming, OccupationUnemployed:
		return true
	}
	return false
}

// Resident 村民档案领域模型（对应 residents 表）
// 每个 User 至多一条（user_id 唯一约束）
type Resident struct {
	ID     int     `db:"id" json:"id"`
	UserID *string `db:"user_id" json:"userId"`

	// 基本信息
	FullName    string `db:"full_name" json:"fullName"`
	Age         int    `db:"age" json:"age"`
	Gender      string `db:"gender" json:"gender"` // 'male' | 'female' | 'other'
	PhoneNumber string `db:"phone_number" json:"phoneNumber"`
	HouseNumber string `db:"house_number" json:"houseNumber"`

	// 当前位置
	CurrentLocation string  `db:"current_location" json:"currentLocation"` // 'village' | 'city' | 'abroad'
	CurrentCity     *string `db:"current_city" json:"currentCity"`         // 仅 location=city 时有意义
	CurrentCountry  *string `db:"current_country" json:"currentCountry"`   // 仅 location=abroad 时有意义

	// 日期（DATE，按天比较）
	DepartureDate      *time.Time `db:"departure_date" json:"departureDate"`
	ExpectedReturnDate *time.Time `db:"expected_return_date" json:"expectedReturnDate"`

	// 工作信息
	Occupation  string  `db:"occupation" json:"occupation"` // 'student'|'job'|'business'|'farming'|'unemployed'
	Company     *string `db:"company" json:"company"`
	WorkSector  *string `db:"work_sector" json:"workSector"`
	WorkDetails *string `db:"work_details" json:"workDetails"`

	// 隐私开关（四个独立布尔）
	IsVisible      bool `db:"is_visible" json:"isVisible"`
	ShowPhone      bool `db:"show_phone" json:"showPhone"`
	ShowLocation   bool `db:"show_location" json:"showLocation"`
	ShowReturnDate bool `db:"show_return_date" json:"showReturnDate"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// ResidentWithUser 读取侧组合视图（Resident + 所属 User）
// 仅在查询时投影，不落库
type ResidentWithUser struct {
	Resident
	User *User `json:"user"`
}
