package parsers

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
)

type TagBlockParserTestSuite struct {
	suite.Suite
}

func TestTagBlockParserSuite(t *testing.T) {
	suite.Run(t, new(TagBlockParserTestSuite))
}

const singleBlockOFX = `OFXHEADER:100
DATA:OFXSGML
<OFX>
<BANKMSGSRSV1>
<STMTTRNRS>
<STMTRS>
<CURDEF>USD
<BANKTRANLIST>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20250115
<TRNAMT>-45.67
<NAME>COFFEE SHOP
</STMTTRN>
</BANKTRANLIST>
</STMTRS>
</STMTTRNRS>
</BANKMSGSRSV1>
</OFX>
`

func (s *TagBlockParserTestSuite) TestSingleBlock() {
	result, err := parseTagBlock([]byte(singleBlockOFX), KindOFX)
	s.Require().NoError(err)

	s.Equal(1, result.RowCount)
	s.Require().Len(result.Transactions, 1)

	txn := result.Transactions[0]
	s.Equal("2025-01-15", txn.Date.Format("2006-01-02"))
	s.True(txn.Amount.Equal(decimal.RequireFromString("-45.67")), "got %s", txn.Amount)
	s.Equal("COFFEE SHOP", txn.Description)
	s.Equal("USD", txn.Currency)
}

func (s *TagBlockParserTestSuite) TestNameAndMemoJoined() {
	data := `OFXHEADER:100
<OFX>
<STMTTRN>
<DTPOSTED>20250201120000[0:GMT]
<TRNAMT>-12.00
<NAME>ACME SUBSCRIPTIONS
<MEMO>MONTHLY PLAN RENEWAL
</STMTTRN>
</OFX>
`
	result, err := parseTagBlock([]byte(data), KindOFX)
	s.Require().NoError(err)
	s.Require().Len(result.Transactions, 1)

	txn := result.Transactions[0]
	s.Equal("ACME SUBSCRIPTIONS - MONTHLY PLAN RENEWAL", txn.Description)
	s.Equal("2025-02-01", txn.Date.Format("2006-01-02"), "time and zone suffix is ignored")
}

func (s *TagBlockParserTestSuite) TestMissingEndTagTerminatesAtNextBlock() {
	data := `OFXHEADER:100
<OFX>
<STMTTRN>
<DTPOSTED>20250110
<TRNAMT>-5.00
<NAME>FIRST VENDOR
<STMTTRN>
<DTPOSTED>20250111
<TRNAMT>-6.00
<NAME>SECOND VENDOR
</STMTTRN>
</OFX>
`
	result, err := parseTagBlock([]byte(data), KindOFX)
	s.Require().NoError(err)
	s.Require().Len(result.Transactions, 2)
	s.Equal("FIRST VENDOR", result.Transactions[0].Description)
	s.Equal("SECOND VENDOR", result.Transactions[1].Description)
}

func (s *TagBlockParserTestSuite) TestMalformedBlockSkippedNotFatal() {
	data := `OFXHEADER:100
<OFX>
<STMTTRN>
<NAME>NO DATE OR AMOUNT HERE
</STMTTRN>
<STMTTRN>
<DTPOSTED>20250115
<TRNAMT>-45.67
<NAME>COFFEE SHOP
</STMTTRN>
</OFX>
`
	result, err := parseTagBlock([]byte(data), KindOFX)
	s.Require().NoError(err)

	s.Equal(2, result.RowCount)
	s.Equal(1, result.SkippedCount)
	s.Require().Len(result.Transactions, 1)
	s.Equal("COFFEE SHOP", result.Transactions[0].Description)
}

func (s *TagBlockParserTestSuite) TestMissingAmountZeroed() {
	data := `OFXHEADER:100
<OFX>
<STMTTRN>
<DTPOSTED>20250115
<NAME>PENDING HOLD
</STMTTRN>
</OFX>
`
	result, err := parseTagBlock([]byte(data), KindOFX)
	s.Require().NoError(err)
	s.Require().Len(result.Transactions, 1)
	s.True(result.Transactions[0].Amount.IsZero())
}

func (s *TagBlockParserTestSuite) TestTrnTypeFallbackDescription() {
	data := `OFXHEADER:100
<OFX>
<STMTTRN>
<TRNTYPE>DEBIT
<DTPOSTED>20250115
<TRNAMT>-45.67
</STMTTRN>
</OFX>
`
	result, err := parseTagBlock([]byte(data), KindOFX)
	s.Require().NoError(err)
	s.Require().Len(result.Transactions, 1)
	s.Equal("DEBIT", result.Transactions[0].Description)
}

func (s *TagBlockParserTestSuite) TestNoBlocks() {
	data := "OFXHEADER:100\n<OFX>\n</OFX>\n"
	_, err := parseTagBlock([]byte(data), KindOFX)
	s.ErrorIs(err, ErrNoBlocks)
}

func (s *TagBlockParserTestSuite) TestFileTooShort() {
	for _, data := range []string{"", "   ", "<OFX>"} {
		_, err := parseTagBlock([]byte(data), KindOFX)
		s.ErrorIs(err, ErrFileTooShort)
	}
}

func (s *TagBlockParserTestSuite) TestCaseShiftingRunesKeepOffsets() {
	// ɐ (2 bytes) uppercases to Ɐ (3 bytes); field values full of such runes
	// must not disturb where the scanner finds the surrounding tags.
	memo := strings.Repeat("ɐ", 40)
	data := `OFXHEADER:100
<OFX>
<STMTTRN>
<DTPOSTED>20250115
<TRNAMT>-45.67
<NAME>COFFEE SHOP
<MEMO>` + memo + `
</STMTTRN>
</OFX>
`
	result, err := parseTagBlock([]byte(data), KindOFX)
	s.Require().NoError(err)
	s.Require().Len(result.Transactions, 1)

	txn := result.Transactions[0]
	s.Equal("COFFEE SHOP - "+memo, txn.Description)
	s.True(utf8.ValidString(txn.Description))
	s.True(txn.Amount.Equal(decimal.RequireFromString("-45.67")))
}

func (s *TagBlockParserTestSuite) TestLowercaseTags() {
	data := `OFXHEADER:100
<ofx>
<stmttrn>
<dtposted>20250115
<trnamt>-45.67
<name>COFFEE SHOP
</stmttrn>
</ofx>
`
	result, err := parseTagBlock([]byte(data), KindOFX)
	s.Require().NoError(err)
	s.Require().Len(result.Transactions, 1)
	s.Equal("COFFEE SHOP", result.Transactions[0].Description)
}

func (s *TagBlockParserTestSuite) TestXMLStyleClosedTags() {
	data := `<?xml version="1.0"?>
<OFX>
<STMTTRN>
<DTPOSTED>20250115</DTPOSTED>
<TRNAMT>-45.67</TRNAMT>
<NAME>COFFEE SHOP</NAME>
</STMTTRN>
</OFX>
`
	result, err := parseTagBlock([]byte(data), KindQFX)
	s.Require().NoError(err)
	s.Require().Len(result.Transactions, 1)
	s.Equal("COFFEE SHOP", result.Transactions[0].Description)
	s.True(result.Transactions[0].Amount.Equal(decimal.RequireFromString("-45.67")))
}
