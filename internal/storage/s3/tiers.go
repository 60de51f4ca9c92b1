package s3

import (
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	awsconfig "github.com/scttfrdmn/cargoship/pkg/aws/config"
)

// Storage classes a driver may write with. Only classes that serve GetObject
// without a restore request are accepted, since reads must return the value.
const (
	StorageClassStandard     = "STANDARD"
	StorageClassStandardIA   = "STANDARD_IA"
	StorageClassOneZoneIA    = "ONEZONE_IA"
	StorageClassGlacierIR    = "GLACIER_IR"
	StorageClassIntelligent  = "INTELLIGENT_TIERING"
	StorageClassReducedRedun = "REDUCED_REDUNDANCY"
)

var storageClasses = map[string]s3types.StorageClass{
	StorageClassStandard:     s3types.StorageClassStandard,
	StorageClassStandardIA:   s3types.StorageClassStandardIa,
	StorageClassOneZoneIA:    s3types.StorageClassOnezoneIa,
	StorageClassGlacierIR:    s3types.StorageClassGlacierIr,
	StorageClassIntelligent:  s3types.StorageClassIntelligentTiering,
	StorageClassReducedRedun: s3types.StorageClassReducedRedundancy,
}

// sdkStorageClass maps a configured class onto the PutObject field; empty means unset.
func sdkStorageClass(class string) s3types.StorageClass {
	if class == "" {
		return ""
	}
	return storageClasses[class]
}

// cargoStorageClass maps a configured class onto CargoShip's enum.
// CargoShip has no Glacier Instant Retrieval class, so it reports false for it.
func cargoStorageClass(class string) (awsconfig.StorageClass, bool) {
	switch class {
	case "", StorageClassStandard, StorageClassReducedRedun:
		return awsconfig.StorageClassStandard, true
	case StorageClassStandardIA:
		return awsconfig.StorageClassStandardIA, true
	case StorageClassOneZoneIA:
		return awsconfig.StorageClassOneZoneIA, true
	case StorageClassIntelligent:
		return awsconfig.StorageClassIntelligentTiering, true
	default:
		return awsconfig.StorageClassStandard, false
	}
}
