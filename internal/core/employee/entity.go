package employee

// Employee は社員一覧に表示する社員レコードです。
// ID はコレクション内で一意かつ取得ごとに安定している前提ですが、検証は行いません。
type Employee struct {
	ID              string `json:"id"`
	FullName        string `json:"full_name"`
	Email           string `json:"email"`
	Location        string `json:"location"`
	CurrentPosition string `json:"current_position"`
	Department      string `json:"department"`
}

// DuplicateIDs はコレクション内で重複している ID を初出順に返します。
func DuplicateIDs(employees []Employee) []string {
	seen := make(map[string]int, len(employees))
	var dups []string
	for _, emp := range employees {
		seen[emp.ID]++
		if seen[emp.ID] == 2 {
			dups = append(dups, emp.ID)
		}
	}
	return dups
}
