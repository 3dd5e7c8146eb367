package export

import (
	"strings"
	"testing"
	"time"

	"bankfeed/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type ExportTestSuite struct {
	suite.Suite
}

func TestExportSuite(t *testing.T) {
	suite.Run(t, new(ExportTestSuite))
}

func exportTxn(description, amount string) *models.Transaction {
	return &models.Transaction{
		ID:          uuid.New(),
		Date:        time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC),
		Description: description,
		Amount:      decimal.RequireFromString(amount),
		Payee:       "COFFEE SHOP",
		Currency:    "USD",
		Categorization: &models.Categorization{
			Category:   models.CategoryCoffeeShops,
			Confidence: 0.95,
			Source:     models.SourceRule,
		},
	}
}

func (s *ExportTestSuite) TestAuditLayout() {
	out, err := Format([]*models.Transaction{exportTxn("STARBUCKS #4521", "-4.50")}, DialectAudit)
	s.Require().NoError(err)

	lines := strings.Split(strings.TrimRight(out, "\r\n"), "\r\n")
	s.Require().Len(lines, 2)
	s.Equal("Date,Description,Payee,Category,Confidence,Source,NeedsReview,Duplicate,Amount,Currency", lines[0])
	s.Equal("2025-01-15,STARBUCKS #4521,COFFEE SHOP,Coffee Shops,0.95,rule,false,false,-4.50,USD", lines[1])
}

func (s *ExportTestSuite) TestQuickBooksLayout() {
	out, err := Format([]*models.Transaction{exportTxn("STARBUCKS #4521", "-4.50")}, DialectQuickBooks)
	s.Require().NoError(err)

	lines := strings.Split(strings.TrimRight(out, "\r\n"), "\r\n")
	s.Require().Len(lines, 2)
	s.Equal("Date,Description,Amount", lines[0])
	s.Equal("01/15/2025,STARBUCKS #4521,-4.50", lines[1])
}

func (s *ExportTestSuite) TestXeroLayout() {
	txn := exportTxn("STARBUCKS #4521", "-4.50")
	txn.RowIndex = 7

	out, err := Format([]*models.Transaction{txn}, DialectXero)
	s.Require().NoError(err)

	lines := strings.Split(strings.TrimRight(out, "\r\n"), "\r\n")
	s.Require().Len(lines, 2)
	s.Equal("Date,Amount,Payee,Description,Reference", lines[0])
	s.Equal("15/01/2025,-4.50,COFFEE SHOP,STARBUCKS #4521,row-7", lines[1])
}

func (s *ExportTestSuite) TestFormulaInjectionNeutralizedEverywhere() {
	hostile := exportTxn("=SUM(A1:A2)", "-4.50")
	hostile.Payee = "@cmd"

	for _, dialect := range []Dialect{DialectAudit, DialectQuickBooks, DialectXero} {
		out, err := Format([]*models.Transaction{hostile}, dialect)
		s.Require().NoError(err)

		s.Contains(out, "'=SUM(A1:A2)", "dialect %s must prefix formula cells", dialect)
		s.NotContains(out, ",=SUM", "dialect %s leaked a bare formula", dialect)
	}
}

func (s *ExportTestSuite) TestNegativeAmountCellNotSanitized() {
	// Amount cells are numeric and must keep their leading minus.
	out, err := Format([]*models.Transaction{exportTxn("COFFEE", "-4.50")}, DialectAudit)
	s.Require().NoError(err)
	s.Contains(out, ",-4.50,")
	s.NotContains(out, "'-4.50")
}

func (s *ExportTestSuite) TestCellQuoting() {
	txn := exportTxn(`ACME, "QUOTED" INC`, "-1.00")

	out, err := Format([]*models.Transaction{txn}, DialectQuickBooks)
	s.Require().NoError(err)
	s.Contains(out, `"ACME, ""QUOTED"" INC"`)
}

func (s *ExportTestSuite) TestUncategorizedTransaction() {
	txn := exportTxn("COFFEE", "-4.50")
	txn.Categorization = nil

	out, err := Format([]*models.Transaction{txn}, DialectAudit)
	s.Require().NoError(err)
	s.Contains(out, "2025-01-15,COFFEE,COFFEE SHOP,,,,false,false,-4.50,USD")
}

func (s *ExportTestSuite) TestUnknownDialect() {
	_, err := Format(nil, Dialect("tsv"))
	s.ErrorIs(err, ErrUnknownDialect)

	s.False(IsValidDialect(Dialect("tsv")))
	s.True(IsValidDialect(DialectAudit))
}

func TestSanitizeCell(t *testing.T) {
	testCases := map[string]string{
		"=SUM(A1:A2)": "'=SUM(A1:A2)",
		"+1234":       "'+1234",
		"-jump":       "'-jump",
		"@import":     "'@import",
		"plain":       "plain",
		"":            "",
	}
	for input, expected := range testCases {
		if got := SanitizeCell(input); got != expected {
			t.Errorf("SanitizeCell(%q) = %q, want %q", input, got, expected)
		}
	}
}
