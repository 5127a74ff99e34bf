package intel

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtract_PhoneFormatsCanonicalizeToOneEntry(t *testing.T) {
	x := NewExtractor()

	// The same number supplied three ways must collapse to one
	// canonical +91 entry.
	x.Extract("call me at 9876543210", "s1")
	x.Extract("my number is +91 98765 43210", "s1")
	intel := x.Extract("or try 098765-43210", "s1")

	want := []string{"+919876543210"}
	if !reflect.DeepEqual(intel.PhoneNumbers, want) {
		t.Fatalf("expected %v, got %v", want, intel.PhoneNumbers)
	}
}

func TestExtract_TollFreeKeptAsRawDigits(t *testing.T) {
	x := NewExtractor()
	intel := x.Extract("verify on our helpline 1800 425 3800 today", "s-tollfree")

	found := false
	for _, p := range intel.PhoneNumbers {
		if p == "18004253800" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected toll-free 18004253800 in %v", intel.PhoneNumbers)
	}
}

func TestExtract_BankAccountRejectsPhoneShapedAndYears(t *testing.T) {
	x := NewExtractor()
	intel := x.Extract("transfer to account 123456789012 before 2024, not to 9876543210", "s-bank")

	if !reflect.DeepEqual(intel.BankAccounts, []string{"123456789012"}) {
		t.Fatalf("expected only the 12-digit account, got %v", intel.BankAccounts)
	}
}

func TestExtract_UpiAcceptsKnownProviderRejectsEmailDomain(t *testing.T) {
	x := NewExtractor()
	intel := x.Extract("pay to fraud@paytm, questions to support@gmail.com", "s-upi")

	if !reflect.DeepEqual(intel.UpiIDs, []string{"fraud@paytm"}) {
		t.Fatalf("expected [fraud@paytm], got %v", intel.UpiIDs)
	}
	if !reflect.DeepEqual(intel.EmailAddresses, []string{"support@gmail.com"}) {
		t.Fatalf("expected [support@gmail.com], got %v", intel.EmailAddresses)
	}
}

func TestExtract_UpiLowercasedAndDeduplicated(t *testing.T) {
	x := NewExtractor()
	x.Extract("send to Fraud@Paytm now", "s-upi2")
	intel := x.Extract("yes FRAUD@PAYTM is correct", "s-upi2")

	if !reflect.DeepEqual(intel.UpiIDs, []string{"fraud@paytm"}) {
		t.Fatalf("expected single lowercase entry, got %v", intel.UpiIDs)
	}
}

func TestExtract_UpiRejectsDomainContinuation(t *testing.T) {
	x := NewExtractor()
	// user@okaxis.bank.com is the front of a domain name, not a VPA.
	intel := x.Extract("login at user@okaxis.bank.com portal", "s-upi3")

	for _, u := range intel.UpiIDs {
		if u == "user@okaxis" {
			t.Fatalf("domain fragment extracted as UPI: %v", intel.UpiIDs)
		}
	}
}

func TestExtract_UrlTrailingPunctuationStripped(t *testing.T) {
	x := NewExtractor()
	intel := x.Extract("click http://sbi-verify.xyz/login. now", "s-url")

	found := false
	for _, link := range intel.PhishingLinks {
		if link == "http://sbi-verify.xyz/login" {
			found = true
		}
		if strings.HasSuffix(link, ".") || strings.HasSuffix(link, ",") {
			t.Fatalf("trailing punctuation survived: %q", link)
		}
	}
	if !found {
		t.Fatalf("expected the stripped URL in %v", intel.PhishingLinks)
	}
}

func TestExtract_CaseIDUppercasedAndPolicyPrefixExcluded(t *testing.T) {
	x := NewExtractor()
	intel := x.Extract("your case cbi-2025-narc-5678 and policy POL-2023-98765", "s-case")

	foundCase := false
	for _, id := range intel.CaseIDs {
		if id == "CBI-2025-NARC-5678" {
			foundCase = true
		}
		if id == "POL-2023-98765" {
			t.Fatalf("policy number leaked into caseIds: %v", intel.CaseIDs)
		}
	}
	if !foundCase {
		t.Fatalf("expected CBI-2025-NARC-5678 in %v", intel.CaseIDs)
	}

	foundPolicy := false
	for _, id := range intel.PolicyNumbers {
		if id == "POL-2023-98765" {
			foundPolicy = true
		}
	}
	if !foundPolicy {
		t.Fatalf("expected POL-2023-98765 in %v", intel.PolicyNumbers)
	}
}

func TestExtract_OrderNumberCaptured(t *testing.T) {
	x := NewExtractor()
	intel := x.Extract("refund for order ORD-78901234 is pending", "s-order")

	found := false
	for _, id := range intel.OrderNumbers {
		if id == "ORD-78901234" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected ORD-78901234 in %v", intel.OrderNumbers)
	}
}

func TestExtract_BlankInputIsNoOp(t *testing.T) {
	x := NewExtractor()
	intel := x.Extract("   ", "s-blank")

	if !intel.IsEmpty() {
		t.Fatalf("expected empty intelligence for blank input")
	}
}

func TestHasIntelligence_TracksAnyClass(t *testing.T) {
	x := NewExtractor()
	if x.HasIntelligence("s-has") {
		t.Fatalf("fresh session should have no intelligence")
	}
	x.Extract("reach me at 9123456780", "s-has")
	if !x.HasIntelligence("s-has") {
		t.Fatalf("expected intelligence after phone extraction")
	}
}
