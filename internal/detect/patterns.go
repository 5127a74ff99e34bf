package detect

import "regexp"

// Signal pattern corpus. Twenty layers (12 core + 8 auxiliary), each a
// list of weighted regexes covering English, Hindi and Hinglish idioms
// for the major Indian scam families: bank fraud, UPI fraud, phishing,
// authority impersonation, digital arrest, courier/parcel, lottery,
// tech support, job fraud, loan fraud, insurance fraud, romance scams.
//
// Short tokens carry explicit \b anchors so substrings never fire
// ("ed" inside "blocked" must not look like the Enforcement
// Directorate).

type weightedPattern struct {
	re     *regexp.Regexp
	weight float64
}

type signalLayer struct {
	name     string
	patterns []weightedPattern
}

type patternRow struct {
	expr   string
	weight float64
}

func compileLayer(name string, rows []patternRow) signalLayer {
	ps := make([]weightedPattern, 0, len(rows))
	for _, r := range rows {
		ps = append(ps, weightedPattern{
			re:     regexp.MustCompile(`(?i)` + r.expr),
			weight: r.weight,
		})
	}
	return signalLayer{name: name, patterns: ps}
}

// ─── Core layers ─────────────────────────────────────────────────────

var urgencyLayer = compileLayer("urgency", []patternRow{
	{`\b(urgent|urgently|immediate(?:ly)?|right\s*now|asap)\b`, 12},
	{`\b(hurry|quickly|fast|rush|rushing)\b`, 10},
	{`\b(within\s*\d+\s*(?:hour|minute|min|day|hr)s?|today\s*only)\b`, 14},
	{`\b(last\s*chance|final\s*(?:notice|warning|chance)|expir(?:e|ing|ed))\b`, 16},
	{`\b(deadline|time\s*(?:running|left)|before\s*\d+)\b`, 12},
	{`\b(act\s*now|don.t\s*wait|limited\s*time|time\s*sensitive)\b`, 14},
	{`\b(running\s*out|clock\s*is\s*ticking|no\s*time)\b`, 12},
	{`\b(expire[sd]?\s*(?:in|within|today|soon)|valid\s*(?:till|until|for))\b`, 14},
	{`\b(?:only|just)\s*\d+\s*(?:hour|minute|min|slot|seat)s?\s*(?:left|remaining)\b`, 16},
	{`\b(respond\s*(?:now|immediately|urgently)|time\s*is\s*(?:running|short))\b`, 12},
	{`\b(jaldi|turant|abhi|fauran|fatafat|jald\s*se\s*jald)\b`, 12},
	{`\b(samay\s*(?:khatam|nahi)|waqt\s*nahi|bahut\s*zaruri)\b`, 12},
	{`\b(aakhri\s*(?:mauka|chance|moka)|ant(?:im|a)\s*(?:chetavani|warning))\b`, 14},
	{`\b(jaldi\s*kar(?:o|iye|en)|der\s*mat\s*kar(?:o|iye))\b`, 12},
	{`\b(tatkaal|atisheeghra|sheeghrata\s*se)\b`, 10},
})

var authorityLayer = compileLayer("authority_impersonation", []patternRow{
	{`\b(rbi|reserve\s*bank(?:\s*of\s*india)?)\b`, 18},
	{`\b(income\s*tax|it\s*department|itr)\b`, 16},
	{`\b(police|cbi|enforcement\s*directorate)\b`, 18},
	{`\b(trai|dot|department\s*of\s*telecom(?:munications)?)\b`, 16},
	{`\b(customs|ministry|government|govt)\b`, 14},
	{`\b(officer|inspector|commissioner|superintendent|sub[\s\-]?inspector)\b`, 12},
	{`\b(uidai|npci|sebi|irda|irdai|nabard|sidbi)\b`, 14},
	{`\b(cyber\s*(?:cell|crime|police|branch))\b`, 16},
	{`\b(central\s*bureau|investigation\s*agency|nia|nsa)\b`, 18},
	{`\b(supreme\s*court|high\s*court|court\s*order|sessions?\s*court)\b`, 16},
	{`\b(pradhan\s*mantri|pm\s*(?:scheme|yojana)|govt\s*scheme)\b`, 14},
	{`\b(sbi|state\s*bank|hdfc|icici|axis\s*bank|kotak|pnb)\b`, 10},
	{`\b(airtel|jio|vodafone|vi|bsnl)\b`, 10},
	{`\b(amazon|flipkart|paytm|phonepe|google\s*pay)\b`, 8},
	{`\b(narcotics?\s*(?:bureau|department|control)|ncb)\b`, 18},
	{`\b(immigration|passport\s*office|dgca|rcb)\b`, 14},
	{`\b(election\s*commission|eci|niti\s*aayog)\b`, 12},
	{`\b(epfo|pf\s*office|esi|labour\s*(?:department|office))\b`, 12},
	{`\b(municipal|nagar\s*(?:nigam|palika)|corporation)\b`, 10},
	{`\b(sarkar|sarkari|adhikari|thana|thanedar)\b`, 12},
	{`\b(vibhag|mantralaya|niyamak|pradhikaran)\b`, 10},
})

var otpLayer = compileLayer("otp_request", []patternRow{
	{`\b(otp|one\s*time\s*password|verification\s*code)\b`, 20},
	{`\b(?:share|send|tell|give|provide|forward)\s*(?:me\s*)?(?:the\s*)?(?:otp|code|pin)\b`, 25},
	{`\b\d[\s\-]?digit\s*(?:code|otp|pin|password|number)\b`, 22},
	{`\b(?:enter|type|input|submit)\s*(?:the\s*)?(?:otp|code|pin)\b`, 22},
	{`\b(cvv|atm\s*pin|card\s*pin|mpin|m[\s\-]?pin|upi\s*pin)\b`, 22},
	{`\b(?:received?\s*(?:a\s*)?(?:otp|code|sms|message))\b`, 18},
	{`\b(?:read\s*(?:out|me)\s*(?:the\s*)?(?:otp|code|number))\b`, 25},
	{`\b(?:what\s*(?:is|was)\s*(?:the\s*)?(?:otp|code|pin))\b`, 22},
	{`\b(?:confirm\s*(?:your\s*)?(?:otp|code|pin|password))\b`, 20},
	{`\b(?:send\s*(?:the\s*)?sms\s*(?:code|otp))\b`, 22},
	{`\b(?:otp\s*(?:batao|bhejo|do|dijiye|bataiye))\b`, 22},
	{`\b(?:code\s*(?:batao|bhejo|do|dijiye))\b`, 20},
})

var paymentLayer = compileLayer("payment_request", []patternRow{
	{`\b(?:send|transfer|pay)\s*(?:me|us|the|now|rs|₹|\$|\d+)\b`, 18},
	{`\b(processing\s*fee|registration\s*fee|advance\s*payment)\b`, 20},
	{`\b(pay\s*now|transfer\s*now|send\s*money|make\s*payment)\b`, 18},
	{`\b(?:amount|money|payment)\s*(?:of|is|due|required|pending)\b`, 14},
	{`\b(demand\s*draft|neft|rtgs|imps|wire\s*transfer)\b`, 10},
	{`\b(?:refund|cashback|reward)\s*(?:of|is|amount|pending|process)\b`, 16},
	{`\b(?:rs|₹|inr)\s*\d[\d,]*\b`, 12},
	{`\b\d[\d,]*\s*(?:rs|rupees?|₹|inr)\b`, 12},
	{`\b(security\s*deposit|verification\s*(?:fee|charge|amount))\b`, 18},
	{`\b(service\s*(?:charge|fee|tax)|gst\s*(?:charge|fee|extra))\b`, 16},
	{`\b(clearance\s*(?:fee|charge|amount)|handling\s*(?:fee|charge))\b`, 18},
	{`\b(stamp\s*duty|documentation\s*(?:fee|charge))\b`, 16},
	{`\b(insurance\s*premium|membership\s*fee|activation\s*(?:fee|charge))\b`, 16},
	{`\b(token\s*(?:money|amount)|booking\s*(?:amount|fee))\b`, 14},
	{`\b(paisa|paise|rupaye|bhejo|transfer\s*karo|payment\s*karo)\b`, 14},
	{`\b(rashi|dhanrashi|shulk|fees?\s*jama\s*kar(?:o|en))\b`, 14},
})

var suspensionLayer = compileLayer("account_suspension", []patternRow{
	{`\b(?:account|a/c)\s*(?:will\s*be\s*)?(?:suspend|block|deactivat|freez|terminat|clos|lock)\w*\b`, 18},
	{`\b(?:suspend|block|deactivat|freez|terminat|lock|clos)(?:ed|ion|ing|ure)\s*(?:your\s*)?(?:account|a/c|card|number|sim|wallet)?\b`, 16},
	{`\b(?:kyc|ekyc|re[\s\-]?kyc|ckyc)\s*(?:update|expir|fail|mandatory|required|pending|incomplete|verify)\b`, 18},
	{`\b(?:sim|number|mobile|phone)\s*(?:will\s*be\s*)?(?:block|deactivat|suspend|disconnect)\b`, 16},
	{`\b(?:aadhaar|aadhar|pan|pan\s*card)\s*(?:block|suspend|deactivat|cancel|link|mismatch)\b`, 16},
	{`\b(?:your\s*(?:card|debit|credit)\s*(?:is|will\s*be|has\s*been))\s*(?:block|suspend|deactivat|freez)\w*\b`, 18},
	{`\b(?:unauthorized?\s*(?:access|transaction|activity|login))\b`, 16},
	{`\b(?:suspicious\s*(?:activity|transaction|login|access))\b`, 16},
	{`\b(?:compromised?|hacked?|breach(?:ed)?|tamper(?:ed)?)\b`, 16},
	{`\b(?:permanently?\s*(?:block|close|deactivat|suspend|disabled?))\b`, 18},
	{`\b(?:service\s*(?:discontinue|terminate|suspend|restrict))\b`, 14},
	{`\b(band\s*(?:ho\s*jayega|kar\s*diya|hoga)|rok\s*diya)\b`, 14},
	{`\b(khata\s*(?:band|block|freeze)|sim\s*band)\b`, 14},
})

var lureLayer = compileLayer("prize_lure", []patternRow{
	{`\b(?:won|winner|winning|congratulat)\w*\b`, 16},
	{`\b(prize|lottery|lucky\s*draw|jackpot|bumper\s*draw)\b`, 18},
	{`\b(?:cashback|cash\s*back|bonus|reward)\s*(?:of|is|amount)?\b`, 14},
	{`\b(?:claim|collect|receive|redeem)\s*(?:your\s*)?(?:prize|reward|money|amount|gift)\b`, 16},
	{`\b(?:guaranteed\s*returns?|double\s*your\s*money|high\s*returns?)\b`, 18},
	{`\b(?:selected|chosen|nominated|shortlisted)\s*(?:for|as)\b`, 14},
	{`\b(?:free\s*(?:gift|iphone|laptop|car|bike|gold|trip|holiday))\b`, 16},
	{`\b(?:scratch\s*card|spin\s*wheel|mega\s*(?:offer|deal|sale))\b`, 14},
	{`\b(?:exclusive\s*(?:offer|deal|discount)|special\s*(?:offer|price))\b`, 12},
	{`\b(?:limited\s*(?:offer|period|seats?)|offer\s*ends?\s*(?:today|soon|now))\b`, 14},
	{`\b(?:kbc|kaun\s*banega\s*crorepati|who\s*wants?\s*to\s*be)\b`, 20},
	{`\b(?:amazon\s*(?:lucky|winner|prize)|flipkart\s*(?:lucky|winner))\b`, 18},
	{`\b(?:government\s*(?:scheme|subsidy|grant)|pm\s*(?:yojana|scheme))\b`, 14},
	{`\b(jeet(?:a|e)|muft|inaam|lakhpati|crorepati)\b`, 14},
	{`\b(badhai|badhaiyan|shubh|lucky)\b`, 10},
})

var urlLayer = compileLayer("suspicious_url", []patternRow{
	{"https?://[^\\s<>\"{}|\\\\^`\\[\\]]+", 12},
	{`\b(?:bit\.ly|tinyurl|goo\.gl|t\.co|rb\.gy|is\.gd|cutt\.ly|shorturl|ow\.ly|tiny\.cc|v\.gd)\b`, 16},
	{`\b(?:click\s*(?:here|this|below|the\s*link)|tap\s*(?:here|this|below)|open\s*(?:this|the\s*link))\b`, 14},
	{`\b(?:wa\.me|whatsapp\.com|t\.me|telegram\.me)\b`, 10},
	{`[a-z0-9]+\.(?:xyz|top|online|site|work|click|live|club|fun|icu|buzz)\b`, 14},
	{`\b(?:download|install|update)\s*(?:from|the|this|our)\s*(?:link|app|apk)\b`, 14},
	{`\b(?:apk|\.exe|\.msi)\s*(?:file|download|install)\b`, 16},
	{`\b(?:anydesk|teamviewer|quicksupport|ammyy|ultraviewer)\b`, 20},
	{`\b(?:screen\s*shar(?:e|ing)|remote\s*(?:access|desktop|control))\b`, 18},
	{`\b(?:play\s*store\s*(?:link|download)|app\s*(?:store|download))\b`, 8},
	{`\b(?:insure|securelink|e-verification|e[\.\s]?verif)\b`, 16},
	{`\b(?:whatsapp|telegram)\s*(?:link|url|group|channel)\b`, 14},
	{`\b(?:mobile\s*app|apk\s*file|install\s*app)\b`, 14},
	{`\b(?:secure[\.\-]?link|safe[\.\-]?pay|verify[\.\-]?now|claim[\.\-]?reward)\b`, 16},
	{`[a-z0-9\-]*(?:secure|verify|account|update|login|claim)[a-z0-9\-]*\.(?:in|com|org|net)/[^\s]*`, 16},
})

var emotionalLayer = compileLayer("emotional_pressure", []patternRow{
	{`\b(scared|afraid|worried|danger(?:ous)?|risk|destroy|ruin)\b`, 10},
	{`\b(?:your\s*(?:family|children|parents?|wife|husband|reputation|career|future))\b`, 12},
	{`\b(embarrass|shame|disgrace|humiliat|insult)\b`, 12},
	{`\b(?:save|protect)\s*(?:yourself|your\s*(?:family|money))\b`, 8},
	{`\b(?:trust\s*me|believe\s*me|honest|genuine|rest\s*assured)\b`, 6},
	{`\b(confidential|secret|private|between\s*us|don.t\s*tell)\b`, 10},
	{`\b(?:no\s*one\s*(?:will\s*know|can\s*help)|only\s*(?:I|we)\s*can)\b`, 12},
	{`\b(helpless|hopeless|no\s*(?:choice|option|way\s*out))\b`, 10},
	{`\b(suffer|suffering|pain|misery|tragedy)\b`, 8},
	{`\b(?:your\s*(?:life|name)\s*(?:will\s*be|is)\s*(?:ruin|destroy|finish))\b`, 14},
	{`\b(media|newspaper|social\s*media|viral|public)\b`, 8},
	{`\b(darr|daro|dar\s*jao|ghabrao|chinta|pareshaan)\b`, 10},
	{`\b(badnaam|izzat|sharm|beizzati|lat|barbad)\b`, 12},
	{`\b(bach\s*jao|bacha\s*lo|madad|sahara|bharosa)\b`, 8},
})

var legalThreatLayer = compileLayer("legal_threat", []patternRow{
	{`\b(legal\s*action|legal\s*notice|legal\s*proceedings?)\b`, 16},
	{`\b(arrest(?:ed)?|warrant|fir|first\s*information\s*report)\b`, 16},
	{`\b(jail|prison|imprison(?:ment)?|custody|detention|lock[\s\-]?up)\b`, 18},
	{`\b(penalty|fine|prosecution|indictment|conviction)\b`, 14},
	{`\b(?:case\s*(?:filed|registered|pending)|under\s*investigation)\b`, 16},
	{`\b(digital\s*arrest|video\s*call\s*arrest|online\s*arrest)\b`, 20},
	{`\b(money\s*laundering|terror(?:ist)?\s*funding|hawala)\b`, 20},
	{`\b(non[\s\-]?bailable|criminal\s*(?:case|offence|charge))\b`, 18},
	{`\b(section\s*\d+|ipc\s*\d+|crpc|it\s*act|cyber\s*(?:act|law))\b`, 14},
	{`\b(summon(?:s|ed)?|notice\s*(?:served|issued)|contempt\s*of\s*court)\b`, 16},
	{`\b(blacklist(?:ed)?|watchlist|lookout\s*(?:notice|circular))\b`, 16},
	{`\b(interpol|red\s*corner|blue\s*corner|extradition)\b`, 18},
	{`\b(narcotics?\s*(?:case|offence)|drug\s*trafficking)\b`, 20},
	{`\b(stay\s*on\s*(?:the\s*)?(?:call|video|line)|don.t\s*disconnect)\b`, 16},
	{`\b(seize|confiscate|attach|freeze)\s*(?:your\s*)?(?:property|assets?|accounts?)\b`, 16},
	{`\b(giraftaar|giraftaari|hathkadi|jail\s*bhejo|andar\s*kar\s*denge)\b`, 18},
	{`\b(kanoon|kanuni|kaarwahi|mukadma|adalat|peshi)\b`, 14},
	{`\b(jurmana|saza|dand|paabandi)\b`, 12},
})

// ─── Auxiliary layers ────────────────────────────────────────────────

var courierLayer = compileLayer("courier", []patternRow{
	{`\b(?:parcel|courier|package|shipment|consignment)\s*.{0,30}(?:seiz|held|illegal|drugs|contraband|suspicious)\b`, 20},
	{`\b(?:customs?\s*(?:duty|clearance|department|officer|fee|charge))\b`, 14},
	{`\b(?:drugs?|contraband|illegal\s*(?:items?|goods?|substance))\s*.{0,30}(?:found|detected|seized|discovered)\b`, 20},
	{`\b(?:fedex|dhl|blue\s*dart|dtdc|india\s*post|speed\s*post)\b`, 12},
	{`\b(?:tracking\s*(?:number|id|code)|consignment\s*(?:number|id|no))\b`, 10},
	{`\b(?:parcel|package|shipment)\s*(?:from|to)\s*(?:china|abroad|overseas|foreign|international)\b`, 16},
	{`\b(?:import\s*(?:duty|tax|fee)|export\s*(?:duty|tax|fee))\b`, 14},
	{`\b(?:x[\s\-]?ray|scan(?:ned)?|inspect(?:ed|ion)?)\s*.{0,20}(?:parcel|package|shipment)\b`, 14},
})

var upiAuxLayer = compileLayer("upi_specific", []patternRow{
	{`\b(?:upi\s*(?:id|address|handle)|bhim\s*id|vpa)\b`, 12},
	{`[\w.\-]+@(?:paytm|ybl|oksbi|okaxis|okicici|upi|phonepe|gpay|ibl|axl|apl|freecharge|airtel|jio|kotak|sbi|hdfc|icici|pnb|bob|barodapay|aubank)\b`, 16},
	{`\b(?:scan\s*(?:the\s*)?(?:qr|code|barcode)|upi\s*transfer)\b`, 12},
	{`\b(?:google\s*pay|phone\s*pe|paytm|bhim|cred|groww|slice|jupiter)\b`, 8},
	{`\b(?:collect\s*request|payment\s*(?:request|link)|pay\s*(?:link|request))\b`, 14},
	{`\b(?:qr\s*code|scan\s*(?:and|to)\s*pay|tap\s*(?:and|to)\s*pay)\b`, 12},
})

var investLayer = compileLayer("investment", []patternRow{
	{`\b(?:invest|trading|forex|crypto|bitcoin|ethereum)\s*.{0,30}(?:guaranteed|profit|returns?|income|gain)\b`, 18},
	{`\b(?:double|triple|10x|100x)\s*(?:your\s*)?(?:money|investment|capital|returns?)\b`, 20},
	{`\b(?:mutual\s*fund|stock\s*(?:tip|market)|insider\s*(?:info|tip|knowledge))\b`, 14},
	{`\b(?:demat|nifty|sensex|share\s*(?:market|trading)|ipo)\b`, 12},
	{`\b(?:monthly\s*(?:income|returns?|profit)|daily\s*(?:income|returns?|profit))\b`, 16},
	{`\b(?:risk[\s\-]?free|zero\s*risk|no\s*risk|safe\s*investment)\b`, 18},
	{`\b(?:portfolio|asset\s*management|wealth\s*management)\b`, 10},
	{`\b(?:mlm|multi[\s\-]?level|network\s*marketing|ponzi|pyramid)\b`, 20},
	{`\b(?:binary\s*(?:option|trading)|option\s*trading)\b`, 16},
	{`\b(?:referral\s*(?:bonus|income|commission)|joining\s*(?:bonus|fee))\b`, 14},
})

var techSupportLayer = compileLayer("tech_support", []patternRow{
	{`\b(?:virus|malware|trojan|spyware|ransomware)\s*.{0,20}(?:detected|found|infected|attack)\b`, 18},
	{`\b(?:computer|system|device|laptop|pc)\s*.{0,20}(?:hacked|compromised|infected|at\s*risk)\b`, 18},
	{`\b(?:microsoft|apple|google|windows)\s*.{0,15}(?:support|helpdesk|team|security)\b`, 16},
	{`\b(?:anydesk|teamviewer|quicksupport|ammyy|ultraviewer|remote\s*desktop)\b`, 20},
	{`\b(?:screen\s*shar(?:e|ing)|remote\s*(?:access|control|connection))\b`, 18},
	{`\b(?:download\s*(?:this|the)\s*(?:app|software|tool)|install\s*(?:this|the)\s*(?:app|software))\b`, 16},
	{`\b(?:tech(?:nical)?\s*support|customer\s*(?:care|support|service)\s*(?:number|helpline))\b`, 12},
	{`\b(?:antivirus|firewall|security\s*(?:alert|warning|scan))\b`, 14},
})

var jobFraudLayer = compileLayer("job_fraud", []patternRow{
	{`\b(?:work\s*from\s*home|online\s*(?:job|work|earning|income))\b`, 14},
	{`\b(?:data\s*entry|typing\s*(?:job|work)|copy\s*paste)\b`, 14},
	{`\b(?:earn\s*(?:from\s*home|daily|weekly|monthly|lakhs?|thousands?))\b`, 16},
	{`\b(?:part[\s\-]?time\s*(?:job|work|income)|freelance\s*(?:job|work|opportunity))\b`, 12},
	{`\b(?:no\s*(?:experience|qualification|skill)s?\s*(?:needed|required))\b`, 16},
	{`\b(?:hiring|recruitment|vacancy|opening|placement)\b`, 8},
	{`\b(?:salary|stipend|package)\s*(?:of|is|upto|ranging)\s*(?:rs|₹|\d+)\b`, 14},
	{`\b(?:telegram\s*(?:group|channel|job)|whatsapp\s*(?:group|job))\b`, 12},
	{`\b(?:training\s*(?:fee|charge)|registration\s*(?:fee|charge|amount))\b`, 18},
	{`\b(?:amazon|flipkart|shopify)\s*(?:review|rating|product\s*review)\b`, 16},
	{`\b(?:youtube|instagram|social\s*media)\s*(?:like|follow|subscribe|view)\b`, 14},
	{`\b(?:task[\s\-]?based|per[\s\-]?task|commission[\s\-]?based)\b`, 12},
})

var loanFraudLayer = compileLayer("loan_fraud", []patternRow{
	{`\b(?:instant\s*(?:loan|credit)|pre[\s\-]?approved\s*(?:loan|credit))\b`, 16},
	{`\b(?:loan\s*(?:approved|sanction|disburs|offer|guarantee))\b`, 14},
	{`\b(?:low\s*(?:interest|emi)|zero\s*(?:interest|emi|percent))\b`, 14},
	{`\b(?:personal\s*loan|home\s*loan|business\s*loan|car\s*loan)\b`, 10},
	{`\b(?:no\s*(?:cibil|credit\s*score|document|collateral)\s*(?:needed|required|check))\b`, 18},
	{`\b(?:processing\s*fee|file\s*(?:charge|fee)|disbursement\s*(?:fee|charge))\b`, 16},
	{`\b(?:emi\s*(?:starts?|from|just)|pay\s*later|buy\s*now)\b`, 10},
	{`\b(?:nbfc|microfinance|fintech|lending\s*(?:app|company|platform))\b`, 10},
})

var insuranceFraudLayer = compileLayer("insurance_fraud", []patternRow{
	{`\b(?:insurance\s*(?:claim|policy|premium|bonus|maturity|lapsed?))\b`, 14},
	{`\b(?:(?:policy|claim)\s*(?:expired?|lapsed?|pending|unclaimed|matured?))\b`, 14},
	{`\b(?:lic|life\s*insurance|health\s*insurance|motor\s*insurance)\b`, 10},
	{`\b(?:bonus\s*(?:amount|payment)|maturity\s*(?:amount|payment|benefit))\b`, 14},
	{`\b(?:unclaimed\s*(?:amount|money|fund|benefit|bonus|deposit))\b`, 16},
	{`\b(?:surrender\s*(?:value|charge)|policy\s*(?:revival|renewal))\b`, 12},
	{`\b(?:nominee|beneficiary)\s*(?:update|change|verify|details)\b`, 12},
})

var romanceLayer = compileLayer("romance_scam", []patternRow{
	{`\b(?:i\s*love\s*you|fallen?\s*(?:in\s*)?love|soul\s*mate)\b`, 14},
	{`\b(?:gift|present|parcel|package)\s*(?:for\s*you|sending|from\s*abroad)\b`, 12},
	{`\b(?:stuck\s*(?:at|in)\s*(?:airport|customs)|need\s*(?:money|help)\s*(?:urgently|now))\b`, 16},
	{`\b(?:military|army|navy|deployed|overseas)\b`, 8},
	// "will" only counts in testament context; the bare auxiliary verb
	// must never fire this layer.
	{`\b(?:inheritance|last\s*will|will\s*(?:executor|beneficiary)|estate|fortune|million\s*dollars?)\b`, 14},
	{`\b(?:western\s*union|moneygram|money\s*order|bitcoin)\b`, 14},
})

var identityTheftLayer = compileLayer("identity_theft", []patternRow{
	{`\b(?:aadhaar|aadhar)\s*(?:number|no|card|id|details|copy)\b`, 14},
	{`\b(?:pan\s*(?:card|number|no|details)|permanent\s*account)\b`, 14},
	{`\b(?:voter\s*id|driving\s*licen[cs]e|passport\s*(?:number|no|details))\b`, 14},
	{`\b(?:date\s*of\s*birth|dob|mother.s?\s*(?:name|maiden))\b`, 12},
	{`\b(?:photo\s*(?:id|proof)|address\s*proof|identity\s*proof)\b`, 10},
	{`\b(?:selfie|photograph|photo)\s*(?:of|with)\s*(?:your|the)\s*(?:aadhaar|pan|id)\b`, 16},
	{`\b(?:share\s*(?:your\s*)?(?:aadhaar|pan|voter|passport|id)\s*(?:number|details|copy|photo))\b`, 18},
})

// allLayers is the full scan order: core first, auxiliary second.
var allLayers = []signalLayer{
	urgencyLayer,
	authorityLayer,
	otpLayer,
	paymentLayer,
	suspensionLayer,
	lureLayer,
	urlLayer,
	emotionalLayer,
	legalThreatLayer,
	courierLayer,
	upiAuxLayer,
	investLayer,
	techSupportLayer,
	jobFraudLayer,
	loanFraudLayer,
	insuranceFraudLayer,
	romanceLayer,
	identityTheftLayer,
}

// greetingOnly matches messages that are nothing but a salutation.
// First-message greetings score zero so small talk never trips the
// threshold.
var greetingOnly = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^[\s]*(hello|hi|hey|namaste|namaskar|good\s*(?:morning|afternoon|evening|day))[\s!.,?]*$`),
	regexp.MustCompile(`(?i)^[\s]*(greetings|howdy|salam|jai\s*hind|jai\s*shri\s*ram)[\s!.,?]*$`),
	regexp.MustCompile(`(?i)^[\s]*(how\s*are\s*you|hope\s*you.?re\s*well|are\s*you\s*there)[\s?.!]*$`),
	regexp.MustCompile(`(?i)^[\s]*(dear\s*(?:sir|ma.?am|customer|user|friend))[\s,!.]*$`),
	regexp.MustCompile(`(?i)^[\s]*(welcome|thank\s*you|thanks)[\s!.,?]*$`),
	regexp.MustCompile(`(?i)^[\s]*(kaise\s*ho|kya\s*haal|theek\s*ho|sab\s*theek)[\s?!.]*$`),
}
