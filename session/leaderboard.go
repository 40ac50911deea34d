package session

import (
	"sort"

	"github.com/itchub/edu-dashboard/users"
)

// Leaderboard returns the known students ordered by coin balance, highest
// first, the way the profile page ranks them.
func (s *Session) Leaderboard() []users.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	students := make([]users.User, 0, len(s.users))
	for _, user := range s.users {
		if user.IsStudent() {
			students = append(students, user)
		}
	}
	sort.SliceStable(students, func(i, j int) bool {
		return students[i].Coins > students[j].Coins
	})
	return students
}

// Rank returns a student's 1-based leaderboard position and the total number
// of students. Rank is 0 when the ID is not a known student.
func (s *Session) Rank(id string) (rank, total int) {
	leaderboard := s.Leaderboard()
	for i, user := range leaderboard {
		if user.ID == id {
			return i + 1, len(leaderboard)
		}
	}
	return 0, len(leaderboard)
}
