package dto

type Filter struct {
	Gender string `query:"gender"`
}
