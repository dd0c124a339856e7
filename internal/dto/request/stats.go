package request

type TopProductsRequest struct {
	Limit int `validate:"min=1,max=100"`
}
