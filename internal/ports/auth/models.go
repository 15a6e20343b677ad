package auth

// Claims representa la identidad extraída del token.
// UserID es el id estable del caller (va a loggedById en los child records);
// DisplayName es el nombre visible que la UI copia en la atribución de logs.
type Claims struct {
	UserID      string
	DisplayName string
}
