package store

// stmtID indexes the fixed statement set. Statements are prepared in
// ascending stmtID order.
type stmtID int

const (
	stmtCountCards stmtID = iota
	stmtCountEdges
	stmtConfigGet
	stmtConfigDelete
	stmtConfigInsert
	stmtConfigList

	numStatements
)

type statementDef struct {
	name  string
	query string
}

var statementDefs = [numStatements]statementDef{
	stmtCountCards:   {name: "count_cards", query: `SELECT count() FROM cards`},
	stmtCountEdges:   {name: "count_edges", query: `SELECT count() FROM edges`},
	stmtConfigGet:    {name: "config_get", query: `SELECT value FROM config WHERE key = ?`},
	stmtConfigDelete: {name: "config_delete", query: `DELETE FROM config WHERE key = ?`},
	stmtConfigInsert: {name: "config_insert", query: `INSERT INTO config (key, value) VALUES (?, ?)`},
	stmtConfigList:   {name: "config_list", query: `SELECT key, value FROM config ORDER BY key COLLATE BINARY ASC, rowid ASC`},
}

func (id stmtID) String() string {
	if id < 0 || id >= numStatements {
		return "unknown"
	}
	return statementDefs[id].name
}
