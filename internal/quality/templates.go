package quality

// Probing template pools for the quality tracker. Investigative
// questions press for the caller's official identity, elicitation
// requests pull transfer details out of them, and red-flag lines voice
// the victim's suspicion about a specific tactic. All pools are rotated
// per session so the same line is not repeated.

var investigativeTemplates = []string{
	"Can you please tell me your company name and official registration number?",
	"What is your full name and employee ID? I need it for my records.",
	"Which department are you calling from? What is the department code?",
	"Can you give me a callback number and your direct extension?",
	"What is your official website address? I want to verify online.",
	"Please share your office address and branch location.",
	"What is the case reference ID or complaint number for this matter?",
	"Can you tell me the IFSC code of your branch?",
	"What is the order number or policy number you are referring to?",
	"Who is your supervisor? Can you give me their contact details?",
	"What is the official toll-free number I can use to verify this call?",
	"Can you send me this information on your official letterhead by email?",
	"What is your badge number or official designation?",
	"Which branch manager can I speak to for confirmation?",
	"What is the registration number of your organization?",
	"Can you provide the official case file number?",
	"I need your employee ID and department name for my notes.",
	"What is the tracking ID or reference number for this request?",
	"Can you share your official email ID? I'll send a written request.",
	"What is the complaint reference number assigned to my case?",
	"What's your team's email address? I want to verify with your office.",
	"Which department are you from exactly? What is the full department name?",
	"Could you share your license ID or official government identification number?",
	"Please tell me your direct supervisor's phone number and name.",
	"Can you confirm the name of your organisation and its headquarters location?",
	"What is the exact case number you mentioned? Please spell it out for me.",
	"Could you give me the reference ID for this complaint? I want to track it.",
	"What government ministry issued this notice? What is the notice number?",
	"Please share the official helpline I can use to confirm your identity.",
	"What is your jurisdiction code or posting location?",
	"Could you spell out the policy number and the issuing authority for me?",
	"What is the transaction reference number you are currently investigating?",
}

var redFlagTemplates = map[string][]string{
	"urgency": {
		"I notice you're creating urgency, which makes me a bit uncomfortable.",
		"This urgency feels concerning to me. Let me take my time.",
		"Why is there such a rush? Legitimate matters don't require such pressure.",
		"The time pressure is making me anxious. Can we slow down?",
	},
	"otp_request": {
		"I notice you're asking for OTP which is usually confidential. My bank says never share it.",
		"OTP requests concern me. Banks always say not to share these codes.",
		"Why would I need to share my OTP? That seems unusual.",
		"My son told me OTPs should never be shared with anyone.",
	},
	"payment_request": {
		"This payment request seems unusual. Why do I need to pay first?",
		"Processing fees before receiving anything doesn't sound right to me.",
		"Why should I transfer money for this? Real organizations don't ask like this.",
		"Payment demands make me suspicious. Let me verify first.",
	},
	"authority_impersonation": {
		"You're claiming to be from a government agency, but how can I verify?",
		"This sounds official, but I've heard scammers impersonate authorities.",
		"I want to verify your identity with the actual department first.",
		"Let me call the official number to confirm you work there.",
	},
	"suspension": {
		"Account blocking threats seem excessive. Is this really necessary?",
		"This suspension warning feels like pressure tactics to me.",
		"My bank has never threatened me like this before.",
		"Let me visit the branch to verify this account issue.",
	},
	"legal_threat": {
		"Legal threats over the phone concern me. Can you send an official notice?",
		"Arrest threats seem extreme. My lawyer would advise differently.",
		"I've never heard of digital arrest. This sounds concerning.",
		"Real legal matters come through proper mail, not phone calls.",
	},
	"suspicious_url": {
		"This link doesn't look like an official website to me.",
		"I'm hesitant to click unknown links. Can you provide official documentation?",
		"The domain looks suspicious. Real organizations use proper websites.",
		"My son warned me about clicking links from unknown callers.",
	},
	"emotional_pressure": {
		"I feel like you're trying to scare me. Please explain calmly.",
		"This emotional pressure is making me uncomfortable.",
		"Let me take a moment to calm down before proceeding.",
		"Why are you making this sound so frightening?",
	},
	"courier": {
		"I haven't ordered anything that would require customs clearance.",
		"Parcel with drugs sounds like a scam I've heard about.",
		"Why would illegal items be addressed to me? This seems wrong.",
		"Let me check with the actual courier company first.",
	},
	"tech_support": {
		"Unsolicited tech support calls are often scams. How do I verify you?",
		"Microsoft doesn't usually call people directly about viruses.",
		"Remote access requests make me very nervous.",
		"My grandson said never to let strangers access my computer.",
	},
	"job_fraud": {
		"Work from home with high pay sounds too good to be true.",
		"Training fees for jobs don't seem right. Real companies pay you.",
		"This job offer sounds suspicious. Can you send an official letter?",
		"Telegram jobs often turn out to be scams, I've heard.",
	},
	"investment": {
		"Guaranteed returns sound unrealistic. Every investment has risk.",
		"Double money schemes remind me of fraud warnings I've seen.",
		"My financial advisor says such returns are impossible legally.",
		"This sounds like the schemes that people get cheated by.",
	},
	"identity_theft": {
		"Why do you need my Aadhaar number? It's very personal.",
		"Document requests over phone make me uncomfortable.",
		"I've been warned about sharing ID proofs with strangers.",
		"Let me verify with the department before sharing any documents.",
	},
	"phishing": {
		"This link doesn't look genuine to me. Why isn't it an official domain?",
		"I'm worried about entering my details on an unknown website.",
		"That URL looks suspicious. Real banks don't send such links.",
		"My son told me never to click links from unknown callers.",
	},
	"fees": {
		"Why would I need to pay a fee to receive something I'm owed?",
		"Processing charges before a refund are a classic fraud tactic.",
		"Real government bodies do not collect money over phone calls.",
		"This demand for advance payment is making me very suspicious.",
	},
	"impersonation": {
		"You sound very official but I cannot verify you are who you claim.",
		"Real officers send written notices first before calling.",
		"I have heard of many people being cheated by fake officials.",
		"Let me call the official number of your department to confirm.",
	},
}

var elicitationTemplates = []string{
	"What account should I transfer to? Give me all the details slowly.",
	"I need your UPI ID, phone number, and the exact amount.",
	"Spell out the account number for me. Also give me the IFSC code.",
	"What is the beneficiary name and bank branch?",
	"Tell me the exact UPI ID letter by letter. I'm writing it down.",
	"Give me your direct contact number in case we get disconnected.",
	"What email should I send the documents to? And your phone number?",
	"I have my banking app open. What are the complete transfer details?",
	"Give me the reference number, amount, and where to send the payment.",
	"What phone number will the OTP come from? And your callback number?",
	"Please share the IFSC code again, I didn't catch it properly.",
	"Give me the exact UPI ID once more so I can double-check it.",
	"What is the account holder's full name as registered with the bank?",
	"Tell me the complete bank details: account number, IFSC, and branch.",
	"Repeat the UPI address letter by letter, I need to enter it carefully.",
	"What is the exact amount I need to send? Please confirm the figure.",
	"Give me the case ID or reference number I should quote for this payment.",
	"What is the policy number associated with this claim?",
	"Tell me the order ID or transaction reference again for my records.",
	"What is your registered mobile number on this account?",
}

// intelKeywords marks templates that ask for a specific intel class so
// they can be filtered out once that class has already been obtained.
var intelKeywords = map[string][]string{
	"phoneNumbers": {
		"phone number", "phone", "contact number", "mobile number",
		"callback number", "direct number", "registered mobile",
	},
	"upiIds": {
		"upi id", "upi", "upi address",
	},
	"bankAccounts": {
		"account number", "ifsc", "bank account", "bank details",
		"beneficiary", "bank branch",
	},
	"emailAddresses": {
		"email",
	},
}

// compoundConnectors stitch multi-part compound probes together.
var compoundConnectors = []string{
	" Also, ",
	" And one more thing, ",
	" By the way, ",
	" While we are on this, ",
	" Oh and also, ",
	" Before I forget, ",
}

// signalRedFlagKeys maps detector signal names to red-flag pool keys.
var signalRedFlagKeys = map[string]string{
	"urgency":                 "urgency",
	"authority_impersonation": "authority_impersonation",
	"otp_request":             "otp_request",
	"payment_request":         "payment_request",
	"account_suspension":      "suspension",
	"prize_lure":              "payment_request",
	"suspicious_url":          "suspicious_url",
	"emotional_pressure":      "emotional_pressure",
	"legal_threat":            "legal_threat",
	"courier":                 "courier",
	"tech_support":            "tech_support",
	"job_fraud":               "job_fraud",
	"investment":              "investment",
	"identity_theft":          "identity_theft",
	"upi_specific":            "payment_request",
	"loan_fraud":              "fees",
	"insurance_fraud":         "fees",
	"romance_scam":            "emotional_pressure",
	"phishing":                "phishing",
	"impersonation":           "impersonation",
}
