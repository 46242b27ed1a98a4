package directory

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cappelaere/wai-bee/internal/common/cnst"
)

// UserAccount is one entry under the "users" key of the source document.
type UserAccount struct {
	Username     string   `yaml:"-"`
	Name         string   `yaml:"name"`
	Email        string   `yaml:"email"`
	Role         string   `yaml:"role"`
	Enabled      bool     `yaml:"enabled"`
	Scholarships []string `yaml:"scholarships"`
	Permissions  []string `yaml:"permissions"`
	PasswordRef  string   `yaml:"password_ref"`
	Initials     string   `yaml:"initials"`
	Reviewer     bool     `yaml:"reviewer"`
}

// HasWildcard reports whether the account may access every scholarship.
func (u *UserAccount) HasWildcard() bool {
	for _, s := range u.Scholarships {
		if s == cnst.ScholarshipWildcard {
			return true
		}
	}
	return false
}

// HasPermission reports whether the account carries the named permission.
func (u *UserAccount) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// Scholarship is one entry under the "scholarships" key of the source document.
type Scholarship struct {
	ID         string `yaml:"-"`
	Name       string `yaml:"name"`
	ShortName  string `yaml:"short_name"`
	DataFolder string `yaml:"data_folder"`
	Enabled    bool   `yaml:"enabled"`
}

// Source is one parsed tenant/user configuration document. Scholarship
// iteration order follows the document, which is why unmarshalling goes
// through yaml.Node instead of a plain map.
type Source struct {
	users            map[string]*UserAccount
	scholarships     map[string]*Scholarship
	scholarshipOrder []string
}

// ParseSource parses and validates a configuration document. Both top-level
// keys must be present mappings.
func ParseSource(data []byte) (*Source, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("unparsable configuration source: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("configuration source is empty")
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("configuration source is not a mapping")
	}

	var usersNode, scholarshipsNode *yaml.Node
	for i := 0; i+1 < len(root.Content); i += 2 {
		switch root.Content[i].Value {
		case "users":
			usersNode = root.Content[i+1]
		case "scholarships":
			scholarshipsNode = root.Content[i+1]
		}
	}
	if usersNode == nil || usersNode.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("configuration source is missing the users mapping")
	}
	if scholarshipsNode == nil || scholarshipsNode.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("configuration source is missing the scholarships mapping")
	}

	src := &Source{
		users:        make(map[string]*UserAccount),
		scholarships: make(map[string]*Scholarship),
	}

	for i := 0; i+1 < len(usersNode.Content); i += 2 {
		username := usersNode.Content[i].Value
		account := &UserAccount{}
		if err := usersNode.Content[i+1].Decode(account); err != nil {
			return nil, fmt.Errorf("invalid account %q: %w", username, err)
		}
		account.Username = username
		src.users[username] = account
	}

	for i := 0; i+1 < len(scholarshipsNode.Content); i += 2 {
		id := scholarshipsNode.Content[i].Value
		sch := &Scholarship{}
		if err := scholarshipsNode.Content[i+1].Decode(sch); err != nil {
			return nil, fmt.Errorf("invalid scholarship %q: %w", id, err)
		}
		sch.ID = id
		src.scholarships[id] = sch
		src.scholarshipOrder = append(src.scholarshipOrder, id)
	}

	return src, nil
}

// User returns the account for username, or nil.
func (s *Source) User(username string) *UserAccount {
	return s.users[username]
}

// Scholarship returns the scholarship with the given id, or nil.
func (s *Source) Scholarship(id string) *Scholarship {
	return s.scholarships[id]
}

// Scholarships returns every configured scholarship in document order.
func (s *Source) Scholarships() []*Scholarship {
	out := make([]*Scholarship, 0, len(s.scholarshipOrder))
	for _, id := range s.scholarshipOrder {
		out = append(out, s.scholarships[id])
	}
	return out
}
