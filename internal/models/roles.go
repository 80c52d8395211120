package models

const (
	RoleAdmin    = "admin"
	RoleInvestor = "investor"
)

type Role struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
