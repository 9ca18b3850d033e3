package types

// Table names as persisted in the database.
const (
	UsersTable      = "users"
	PropertiesTable = "properties"
	PhotosTable     = "photos"
	MessagesTable   = "messages"
	FavoritesTable  = "favorites"
)

// StandardTableNames lists all tables in dependency order.
var StandardTableNames = []string{
	UsersTable,
	PropertiesTable,
	PhotosTable,
	MessagesTable,
	FavoritesTable,
}
