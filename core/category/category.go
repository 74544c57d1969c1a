package category

type Category struct {
	ID   string `json:"id" db:"category_id"`
	Name string `json:"name" db:"name"`
}

type CategoryNew struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

type CategoryUp struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}
