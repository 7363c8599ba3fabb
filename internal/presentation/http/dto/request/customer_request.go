package request

// CustomerForm is the posted body of the store and update actions
type CustomerForm struct {
	Name  string  `form:"name"`
	Email string  `form:"email"`
	Phone *string `form:"phone"`
}

// PageQuery holds the query parameters shared by every page action
type PageQuery struct {
	Action  string `form:"action"`
	ID      string `form:"id"`
	Page    string `form:"page"`
	Search  string `form:"search"`
	Format  string `form:"format"`
	Success string `form:"success"`
	Error   string `form:"error"`
}
