package model

// AuthorityTier grades how authoritative a result's host is
type AuthorityTier int

const (
	TierUnknown   AuthorityTier = 0 // Not yet classified
	TierPrimary   AuthorityTier = 1 // Government, curated databases, academic institutions
	TierSecondary AuthorityTier = 2 // Peer-reviewed journals and professional societies
	TierTertiary  AuthorityTier = 3 // Everything else
)

func (t AuthorityTier) String() string {
	switch t {
	case TierPrimary:
		return "primary"
	case TierSecondary:
		return "secondary"
	case TierTertiary:
		return "tertiary"
	default:
		return "unknown"
	}
}

// AuthorityConfig lists the hosts behind each tier. Subdomains inherit the
// tier of their parent domain.
type AuthorityConfig struct {
	PrimaryDomains   []string          `yaml:"primary_domains"`
	SecondaryDomains []string          `yaml:"secondary_domains"`
	DomainMap        map[string]string `yaml:"domain_map,omitempty"` // Exact host -> tier name
}

// DefaultAuthority returns the built-in oncology source tiers
func DefaultAuthority() AuthorityConfig {
	return AuthorityConfig{
		PrimaryDomains: []string{
			"ncbi.nlm.nih.gov",
			"nih.gov",
			"cancer.gov",
			"fda.gov",
			"clinicaltrials.gov",
			"oncokb.org",
			"civicdb.org",
			"cancer.sanger.ac.uk",
			"doi.org",
		},
		SecondaryDomains: []string{
			"nejm.org",
			"nature.com",
			"thelancet.com",
			"ascopubs.org",
			"aacrjournals.org",
			"nccn.org",
			"esmo.org",
			"mycancergenome.org",
			"sciencedirect.com",
			"springer.com",
			"wiley.com",
		},
	}
}
