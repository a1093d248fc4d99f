package schema

// Trades are the trade categories used for candidates, postings and company specialties.
var Trades = []string{
	"ELECTRICIAN",
	"PLUMBER",
	"HVAC_TECHNICIAN",
	"CARPENTER",
	"WELDER",
	"PIPEFITTER",
	"STEAMFITTER",
	"SHEET_METAL_WORKER",
	"MASON",
	"CONCRETE_FINISHER",
	"ROOFER",
	"DRYWALL_INSTALLER",
	"PAINTER",
	"IRONWORKER",
	"GLAZIER",
	"INSULATION_WORKER",
	"HEAVY_EQUIPMENT_OPERATOR",
	"MILLWRIGHT",
	"ELEVATOR_MECHANIC",
	"FLOORING_INSTALLER",
	"TILE_SETTER",
	"LANDSCAPER",
	"GENERAL_LABORER",
	"SOLAR_INSTALLER",
	"FIRE_SPRINKLER_FITTER",
	"LOW_VOLTAGE_TECHNICIAN",
}

// Certifications are the credentials a tradesperson can hold or a posting can require.
var Certifications = []string{
	"OSHA_10",
	"OSHA_30",
	"JOURNEYMAN_LICENSE",
	"MASTER_LICENSE",
	"APPRENTICESHIP_COMPLETED",
	"EPA_608",
	"NATE",
	"AWS_CERTIFIED_WELDER",
	"NCCER",
	"CDL_A",
	"CDL_B",
	"FORKLIFT",
	"FIRST_AID_CPR",
	"CONFINED_SPACE",
	"FALL_PROTECTION",
	"NFPA_70E",
	"NICET",
	"BACKFLOW_PREVENTION",
	"MEDICAL_GAS",
	"RIGGING_SIGNALING",
}

// Benefits are the benefit codes a posting can advertise.
var Benefits = []string{
	"HEALTH_INSURANCE",
	"DENTAL_INSURANCE",
	"VISION_INSURANCE",
	"RETIREMENT_401K",
	"PENSION",
	"PAID_TIME_OFF",
	"PAID_HOLIDAYS",
	"OVERTIME_PAY",
	"PER_DIEM",
	"TOOL_ALLOWANCE",
	"VEHICLE_PROVIDED",
	"TRAINING_PROVIDED",
	"UNION_MEMBERSHIP",
	"SIGNING_BONUS",
	"PERFORMANCE_BONUS",
	"LIFE_INSURANCE",
}

// JobTypes are the employment arrangements.
var JobTypes = []string{
	"FULL_TIME",
	"PART_TIME",
	"CONTRACT",
	"TEMPORARY",
	"APPRENTICESHIP",
	"SEASONAL",
}

// PayTypes describe how compensation is quoted.
var PayTypes = []string{
	"HOURLY",
	"SALARY",
	"PER_PROJECT",
	"DAILY",
}

// ExperienceLevels grade seniority within a trade.
var ExperienceLevels = []string{
	"ENTRY",
	"APPRENTICE",
	"JOURNEYMAN",
	"MASTER",
	"FOREMAN",
	"SUPERINTENDENT",
}

// Availability is how soon a candidate can start.
var Availability = []string{
	"IMMEDIATE",
	"TWO_WEEKS",
	"ONE_MONTH",
	"FLEXIBLE",
}

// CompanySizes bucket employer headcount.
var CompanySizes = []string{
	"SIZE_1_10",
	"SIZE_11_50",
	"SIZE_51_200",
	"SIZE_201_500",
	"SIZE_500_PLUS",
}
