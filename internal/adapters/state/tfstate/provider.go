package tfstate

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/olusolaa/catalog-entity-provider/internal/core/domain"
	"github.com/olusolaa/catalog-entity-provider/internal/core/ports"
	"github.com/olusolaa/catalog-entity-provider/internal/errors"
	"github.com/olusolaa/catalog-entity-provider/pkg/convert"
)

const (
	SourceTypeTFState   = "tfstate"
	organizationAccount = "aws_organizations_account"
)

var accountIDPattern = regexp.MustCompile(`^\d{12}$`)

type Config struct {
	FilePath      string `yaml:"path" mapstructure:"path" validate:"required"`
	RoleName      string `yaml:"role_name" mapstructure:"role_name"`
	DefaultRegion string `yaml:"default_region" mapstructure:"default_region"`
}

// AccountSource discovers member accounts from aws_organizations_account
// resources in a Terraform state file.
type AccountSource struct {
	cfg    Config
	parser *stateParser
	logger ports.Logger
}

func NewAccountSource(cfg Config, logger ports.Logger) (*AccountSource, error) {
	if cfg.FilePath == "" {
		return nil, errors.NewUserFacing(errors.CodeConfigValidation, "tfstate account source requires a path",
			"Set account_sources.tfstate.path.")
	}
	plog := logger.WithFields(map[string]any{
		"account_source": SourceTypeTFState,
		"state_file":     cfg.FilePath,
	})
	return &AccountSource{cfg: cfg, parser: newStateParser(cfg.FilePath, plog), logger: plog}, nil
}

func (s *AccountSource) Type() string { return SourceTypeTFState }

// Accounts returns active member accounts sorted by id. Accounts whose
// status is anything but ACTIVE are skipped.
func (s *AccountSource) Accounts(ctx context.Context) ([]domain.Account, error) {
	resources, err := s.parser.parseAndCache(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var accounts []domain.Account
	for _, r := range resources {
		if r.Type != organizationAccount {
			continue
		}
		id, ok := convert.LookupString(r.Attributes, "id")
		if !ok || !accountIDPattern.MatchString(id) {
			s.logger.Warnf(ctx, "Skipping %s: no valid account id", r.Address)
			continue
		}
		if status, ok := convert.LookupString(r.Attributes, "status"); ok && status != "ACTIVE" {
			s.logger.Debugf(ctx, "Skipping %s: status %s", r.Address, status)
			continue
		}
		if seen[id] {
			continue
		}
		seen[id] = true

		acct := domain.Account{AccountID: id, DefaultRegion: s.cfg.DefaultRegion}
		if s.cfg.RoleName != "" {
			acct.RoleARN = fmt.Sprintf("arn:aws:iam::%s:role/%s", id, s.cfg.RoleName)
		}
		accounts = append(accounts, acct)
	}

	sort.Slice(accounts, func(i, j int) bool { return accounts[i].AccountID < accounts[j].AccountID })
	s.logger.Debugf(ctx, "Discovered %d accounts", len(accounts))
	return accounts, nil
}
