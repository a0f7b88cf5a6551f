package mockapi

var samples = []Notification{
	{
		Type:          "candidate_shortlisted",
		Priority:      "normal",
		Message:       "Priya Raman has been shortlisted",
		CandidateName: "Priya Raman",
		Position:      "Backend Engineer",
		CandidateID:   101,
	},
	{
		Type:          "candidate_selected",
		Priority:      "high",
		Message:       "Tomás Ortega has been selected",
		CandidateName: "Tomás Ortega",
		Position:      "Product Designer",
		CandidateID:   102,
	},
	{
		Type:        "candidate_shortlisted",
		Message:     "A candidate was shortlisted",
		CandidateID: 103,
	},
}

// Seed adds a small set of sample notifications covering both kinds and
// priorities.
func Seed(st *Store) {
	for i := range samples {
		st.Add(Sample(i))
	}
}

// Sample returns the n-th sample notification, cycling through the set.
// The id and timestamp are left for [Store.Add] to assign.
func Sample(n int) Notification {
	if n < 0 {
		n = -n
	}
	return samples[n%len(samples)]
}
