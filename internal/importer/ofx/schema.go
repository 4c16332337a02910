package ofx

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// The fixed schema mirrors the OFX banking specification subset emitted by
// credit-card and bank exports: sign-on response, statement response,
// transaction list, and ledger/available balances. It is the fallback decode
// path for sanitized documents the ofxgo backend rejects.

type document struct {
	XMLName xml.Name       `xml:"OFX"`
	Signon  signonResponse `xml:"SIGNONMSGSRSV1>SONRS"`
	Card    *statement     `xml:"CREDITCARDMSGSRSV1>CCSTMTTRNRS>CCSTMTRS"`
	Bank    *statement     `xml:"BANKMSGSRSV1>STMTTRNRS>STMTRS"`
}

type signonResponse struct {
	Status   status `xml:"STATUS"`
	ServerAt string `xml:"DTSERVER"`
	Language string `xml:"LANGUAGE"`
	Org      string `xml:"FI>ORG"`
	FID      string `xml:"FI>FID"`
}

type status struct {
	Code     int    `xml:"CODE"`
	Severity string `xml:"SEVERITY"`
}

type statement struct {
	Currency     string       `xml:"CURDEF"`
	CardAcct     acctInfo     `xml:"CCACCTFROM"`
	BankAcct     acctInfo     `xml:"BANKACCTFROM"`
	Transactions tranList     `xml:"BANKTRANLIST"`
	LedgerBal    *balanceInfo `xml:"LEDGERBAL"`
	AvailableBal *balanceInfo `xml:"AVAILBAL"`
}

type acctInfo struct {
	BankID   string `xml:"BANKID"`
	AcctID   string `xml:"ACCTID"`
	AcctType string `xml:"ACCTTYPE"`
}

type tranList struct {
	Start        string        `xml:"DTSTART"`
	End          string        `xml:"DTEND"`
	Transactions []transaction `xml:"STMTTRN"`
}

type transaction struct {
	Type     string `xml:"TRNTYPE"`
	Posted   string `xml:"DTPOSTED"`
	Amount   string `xml:"TRNAMT"`
	FiTID    string `xml:"FITID"`
	CheckNum string `xml:"CHECKNUM"`
	Name     string `xml:"NAME"`
	Memo     string `xml:"MEMO"`
}

type balanceInfo struct {
	Amount string `xml:"BALAMT"`
	AsOf   string `xml:"DTASOF"`
}

// decodeDocument parses a sanitized (well-formed) body against the fixed
// schema and returns the statement it contains. Credit-card statements take
// precedence, matching the export shapes this application receives.
func decodeDocument(body string) (*statement, error) {
	var doc document
	decoder := xml.NewDecoder(strings.NewReader(body))
	// Institution exports are frequently Latin-1 or otherwise loose about
	// declared charsets; decode bytes as-is.
	decoder.CharsetReader = func(charset string, input io.Reader) (io.Reader, error) {
		return input, nil
	}
	if err := decoder.Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode OFX body: %w", err)
	}

	if doc.Signon.Status.Code != 0 {
		return nil, fmt.Errorf("OFX sign-on reported status %d (%s)",
			doc.Signon.Status.Code, doc.Signon.Status.Severity)
	}
	if doc.Card != nil {
		return doc.Card, nil
	}
	if doc.Bank != nil {
		return doc.Bank, nil
	}
	return nil, fmt.Errorf("no credit-card or bank statement found in OFX document")
}
