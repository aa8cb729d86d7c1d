package directory

// Entry is a row of the demo user listing served at /users. It carries no
// credentials and is unrelated to the accounts that can log in.
type Entry struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
	CreatedBy *int64 `json:"createdBy,omitempty"`
}

type CreateEntryRequest struct {
	Name  string `json:"name" binding:"required,min=2"`
	Email string `json:"email" binding:"required,email"`
}
