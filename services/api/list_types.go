package api

type subjectPage struct {
	Subjects []Subject `json:"subjects"`
	Total    int64     `json:"total"`
	Page     int       `json:"page"`
	Pages    int       `json:"pages"`
}

type sessionPage struct {
	Sessions []StudySession `json:"sessions"`
	Total    int64          `json:"total"`
	Page     int            `json:"page"`
	Pages    int            `json:"pages"`
}

func pageCount(total int64, perPage int) int {
	if total == 0 {
		return 0
	}
	return int((total + int64(perPage) - 1) / int64(perPage))
}
