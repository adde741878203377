package domain

// LocationStat 按当前位置分组的计数（只统计可见住户，无零值填充）
type LocationStat struct {
	Location string `json:"location"`
	Count    int    `json:"count"`
}

// OccupationStat 按职业分组的计数（只统计可见住户，无零值填充）
type OccupationStat struct {
	Occupation string `json:"occupation"`
	Count      int    `json:"count"`
}

// TotalStats 汇总统计
// inVillage + inCity + abroad == total 恒成立（current_location 三值枚举保证）
type TotalStats struct {
	Total     int `json:"total"`
	InVillage int `json:"inVillage"`
	InCity    int `json:"inCity"`
	Abroad    int `json:"abroad"`
}
