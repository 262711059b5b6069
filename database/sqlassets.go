package sqlassets

import "embed"

// Schema holds the DDL files applied in lexical order by the bootstrap helper.
//
//go:embed schema/*.sql
var Schema embed.FS

// SchemaDir is the directory inside Schema.
const SchemaDir = "schema"
