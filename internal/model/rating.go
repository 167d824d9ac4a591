package model

// RatingType 评分条目类型
type RatingType string

const (
	RatingTypeMovie  RatingType = "movie"
	RatingTypeSeries RatingType = "series"
)

// Rating 用户对一部电影或剧集的评分，由评分 API 拥有，客户端只读
type Rating struct {
	ID     string     `json:"_id"`
	Title  string     `json:"title"`
	Type   RatingType `json:"type"`
	Rating int        `json:"rating"`
	Year   int        `json:"year"`
	Genre  string     `json:"genre"`
}

// RatingsQuery 一次拉取请求的全部参数
type RatingsQuery struct {
	UserID string
	Filter Filter
	Page   int
}

// RatingsPage 评分 API 的一页响应
type RatingsPage struct {
	Ratings    []Rating `json:"ratings"`
	TotalPages int      `json:"totalPages"`
	TotalCount int      `json:"totalCount"`
}
