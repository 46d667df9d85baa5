// souschef/utils/types/user.go
package types

type LoginRequest struct {
	Username string `json:"username"`
}
