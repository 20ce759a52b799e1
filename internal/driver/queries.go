package driver

import "fmt"

// IndexQueries use Memgraph's label-property index syntax.
var IndexQueries = []string{
	"CREATE INDEX ON :Member(id);",
	"CREATE INDEX ON :Member(generation);",
	"CREATE INDEX ON :Member(branch_name);",
}

const (
	SaveMemberQuery = `
		MERGE (m:Member {id: $id})
		SET m.name = $name,
			m.gender = $gender,
			m.generation = $generation,
			m.generation_word = $generation_word,
			m.branch_name = $branch_name,
			m.is_alive = $is_alive,
			m.is_floating = $is_floating,
			m.birth_date = $birth_date,
			m.death_date = $death_date,
			m.updated_at = $updated_at
		RETURN m.id AS id
	`

	DeleteMemberQuery = `
		MATCH (m:Member {id: $id})
		DETACH DELETE m
	`

	SaveLinkQuery = `
		MATCH (source:Member {id: $source_id})
		MATCH (target:Member {id: $target_id})
		MERGE (source)-[r:FAMILY {id: $id}]->(target)
		SET r.role = $role,
			r.relationship = $relationship,
			r.created_at = $created_at
		RETURN r.id AS id
	`

	DeleteLinkQuery = `
		MATCH ()-[r:FAMILY {id: $id}]->()
		DELETE r
	`

	ClearGraphQuery = `
		MATCH (m:Member)
		DETACH DELETE m
	`
)

// Variable-length bounds cannot be query parameters, so the depth is
// formatted into the pattern. Callers clamp it first.
const lineageQueryTemplate = `
	MATCH p = (m:Member {id: $id})-[:FAMILY*1..%d]->(other:Member)
	WHERE all(r IN relationships(p) WHERE r.role IN $roles)
		AND other.id <> $id
	RETURN other.id AS id, min(size(relationships(p))) AS depth
`

func LineageQuery(maxDepth int) string {
	if maxDepth < 1 {
		maxDepth = 1
	}
	return fmt.Sprintf(lineageQueryTemplate, maxDepth)
}

var (
	AncestorRoles   = []string{"father", "mother"}
	DescendantRoles = []string{"son", "daughter"}
)
