package exercises

// Exercise is one entry of the static catalog.
type Exercise struct {
	ID            string `json:"id" toml:"id"`
	Name          string `json:"name" toml:"name"`
	Instructions  string `json:"instructions" toml:"instructions"`
	MuscleGroupID string `json:"muscle_group_id" toml:"-"`
}

type MuscleGroup struct {
	ID        string     `json:"id" toml:"id"`
	Name      string     `json:"name" toml:"name"`
	Emoji     string     `json:"emoji" toml:"emoji"`
	Exercises []Exercise `json:"exercises" toml:"exercises"`
}

// ListMuscleGroupsResponse is returned by GET /v1/exercises/muscle-groups.
type ListMuscleGroupsResponse struct {
	MuscleGroups []MuscleGroup `json:"muscle_groups"`
}

// SearchResponse is returned by GET /v1/exercises/search.
type SearchResponse struct {
	Query     string     `json:"query"`
	Exercises []Exercise `json:"exercises"`
}
