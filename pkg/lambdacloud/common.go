package lambdacloud

// RegionCode identifies a Lambda Cloud region
type RegionCode string

// Public region codes
const (
	RegionEuropeCentral1 RegionCode = "europe-central-1"
	RegionAsiaSouth1     RegionCode = "asia-south-1"
	RegionAustraliaEast1 RegionCode = "australia-east-1"
	RegionMeWest1        RegionCode = "me-west-1"
	RegionAsiaNortheast1 RegionCode = "asia-northeast-1"
	RegionAsiaNortheast2 RegionCode = "asia-northeast-2"
	RegionUSEast1        RegionCode = "us-east-1"
	RegionUSWest2        RegionCode = "us-west-2"
	RegionUSWest1        RegionCode = "us-west-1"
	RegionUSSouth1       RegionCode = "us-south-1"
	RegionUSWest3        RegionCode = "us-west-3"
	RegionUSMidwest1     RegionCode = "us-midwest-1"
	RegionUSEast2        RegionCode = "us-east-2"
	RegionUSSouth2       RegionCode = "us-south-2"
	RegionUSSouth3       RegionCode = "us-south-3"
	RegionUSEast3        RegionCode = "us-east-3"
	RegionUSMidwest2     RegionCode = "us-midwest-2"
	RegionTestEast1      RegionCode = "test-east-1"
	RegionTestWest1      RegionCode = "test-west-1"
)

var knownRegions = map[RegionCode]struct{}{
	RegionEuropeCentral1: {}, RegionAsiaSouth1: {}, RegionAustraliaEast1: {},
	RegionMeWest1: {}, RegionAsiaNortheast1: {}, RegionAsiaNortheast2: {},
	RegionUSEast1: {}, RegionUSWest2: {}, RegionUSWest1: {}, RegionUSSouth1: {},
	RegionUSWest3: {}, RegionUSMidwest1: {}, RegionUSEast2: {}, RegionUSSouth2: {},
	RegionUSSouth3: {}, RegionUSEast3: {}, RegionUSMidwest2: {},
	RegionTestEast1: {}, RegionTestWest1: {},
}

// KnownRegion reports whether code is one of the published region codes.
// The API may add regions before this list is updated, so callers should only warn on unknown codes.
func KnownRegion(code RegionCode) bool {
	_, ok := knownRegions[code]
	return ok
}

// Region describes a deployment location
type Region struct {
	Name        RegionCode `json:"name"`
	Description string     `json:"description"`
}

// UserStatus is the account status of a user
type UserStatus string

const (
	UserStatusActive      UserStatus = "active"
	UserStatusDeactivated UserStatus = "deactivated"
)

// User identifies the account that created a resource
type User struct {
	ID     string     `json:"id"`
	Email  string     `json:"email"`
	Status UserStatus `json:"status"`
}
