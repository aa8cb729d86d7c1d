package profile

// Profile is the static team member card shown on /home/:id.
type Profile struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Title      string `json:"title"`
	Department string `json:"department"`
	JoinDate   string `json:"joinDate"`
	Avatar     string `json:"avatar"`
}

var profiles = []Profile{
	{ID: 1, Name: "Ravi Kumar", Email: "ravi@example.com", Title: "Developer", Department: "Engineering", JoinDate: "2024-01-15", Avatar: "RK"},
	{ID: 2, Name: "Priya Singh", Email: "priya@example.com", Title: "Designer", Department: "Design", JoinDate: "2024-02-20", Avatar: "PS"},
	{ID: 3, Name: "Amit Patel", Email: "amit@example.com", Title: "Manager", Department: "Operations", JoinDate: "2023-11-10", Avatar: "AP"},
}

func All() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles)
	return out
}

// Lookup falls back to the first profile for unknown ids.
func Lookup(id int64) Profile {
	for _, p := range profiles {
		if p.ID == id {
			return p
		}
	}
	return profiles[0]
}
