package story

import (
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

const (
	mintAndRegisterMethod = "mintAndRegisterIpAndAttachPILTerms"
	ipRegisteredEvent     = "IPRegistered"
)

// workflowsABI covers the single LicenseAttachmentWorkflows entry point used
// here plus the IPAssetRegistry event that carries the new ipId.
const workflowsABI = `[
  {
    "type": "function",
    "name": "mintAndRegisterIpAndAttachPILTerms",
    "stateMutability": "nonpayable",
    "inputs": [
      {"name": "spgNftContract", "type": "address"},
      {"name": "recipient", "type": "address"},
      {"name": "ipMetadata", "type": "tuple", "components": [
        {"name": "ipMetadataURI", "type": "string"},
        {"name": "ipMetadataHash", "type": "bytes32"},
        {"name": "nftMetadataURI", "type": "string"},
        {"name": "nftMetadataHash", "type": "bytes32"}
      ]},
      {"name": "licenseTermsData", "type": "tuple[]", "components": [
        {"name": "terms", "type": "tuple", "components": [
          {"name": "transferable", "type": "bool"},
          {"name": "royaltyPolicy", "type": "address"},
          {"name": "defaultMintingFee", "type": "uint256"},
          {"name": "expiration", "type": "uint256"},
          {"name": "commercialUse", "type": "bool"},
          {"name": "commercialAttribution", "type": "bool"},
          {"name": "commercializerChecker", "type": "address"},
          {"name": "commercializerCheckerData", "type": "bytes"},
          {"name": "commercialRevShare", "type": "uint32"},
          {"name": "commercialRevCeiling", "type": "uint256"},
          {"name": "derivativesAllowed", "type": "bool"},
          {"name": "derivativesAttribution", "type": "bool"},
          {"name": "derivativesApproval", "type": "bool"},
          {"name": "derivativesReciprocal", "type": "bool"},
          {"name": "derivativeRevCeiling", "type": "uint256"},
          {"name": "currency", "type": "address"},
          {"name": "uri", "type": "string"}
        ]},
        {"name": "licensingConfig", "type": "tuple", "components": [
          {"name": "isSet", "type": "bool"},
          {"name": "mintingFee", "type": "uint256"},
          {"name": "licensingHook", "type": "address"},
          {"name": "hookData", "type": "bytes"},
          {"name": "commercialRevShare", "type": "uint32"},
          {"name": "disabled", "type": "bool"},
          {"name": "expectMinimumGroupRewardShare", "type": "uint32"},
          {"name": "expectGroupRewardPool", "type": "address"}
        ]}
      ]},
      {"name": "allowDuplicates", "type": "bool"}
    ],
    "outputs": [
      {"name": "ipId", "type": "address"},
      {"name": "tokenId", "type": "uint256"},
      {"name": "licenseTermsIds", "type": "uint256[]"}
    ]
  },
  {
    "type": "event",
    "name": "IPRegistered",
    "anonymous": false,
    "inputs": [
      {"name": "ipId", "type": "address", "indexed": false},
      {"name": "chainId", "type": "uint256", "indexed": true},
      {"name": "tokenContract", "type": "address", "indexed": true},
      {"name": "tokenId", "type": "uint256", "indexed": true},
      {"name": "name", "type": "string", "indexed": false},
      {"name": "uri", "type": "string", "indexed": false},
      {"name": "registrationDate", "type": "uint256", "indexed": false}
    ]
  }
]`

func parseWorkflowsABI() (abi.ABI, error) {
	return abi.JSON(strings.NewReader(workflowsABI))
}

type ipMetadataArg struct {
	IPMetadataURI   string      `abi:"ipMetadataURI"`
	IPMetadataHash  common.Hash `abi:"ipMetadataHash"`
	NFTMetadataURI  string      `abi:"nftMetadataURI"`
	NFTMetadataHash common.Hash `abi:"nftMetadataHash"`
}

type pilTermsArg struct {
	Transferable              bool           `abi:"transferable"`
	RoyaltyPolicy             common.Address `abi:"royaltyPolicy"`
	DefaultMintingFee         *big.Int       `abi:"defaultMintingFee"`
	Expiration                *big.Int       `abi:"expiration"`
	CommercialUse             bool           `abi:"commercialUse"`
	CommercialAttribution     bool           `abi:"commercialAttribution"`
	CommercializerChecker     common.Address `abi:"commercializerChecker"`
	CommercializerCheckerData []byte         `abi:"commercializerCheckerData"`
	CommercialRevShare        uint32         `abi:"commercialRevShare"`
	CommercialRevCeiling      *big.Int       `abi:"commercialRevCeiling"`
	DerivativesAllowed        bool           `abi:"derivativesAllowed"`
	DerivativesAttribution    bool           `abi:"derivativesAttribution"`
	DerivativesApproval       bool           `abi:"derivativesApproval"`
	DerivativesReciprocal     bool           `abi:"derivativesReciprocal"`
	DerivativeRevCeiling      *big.Int       `abi:"derivativeRevCeiling"`
	Currency                  common.Address `abi:"currency"`
	URI                       string         `abi:"uri"`
}

type licensingConfigArg struct {
	IsSet                         bool           `abi:"isSet"`
	MintingFee                    *big.Int       `abi:"mintingFee"`
	LicensingHook                 common.Address `abi:"licensingHook"`
	HookData                      []byte         `abi:"hookData"`
	CommercialRevShare            uint32         `abi:"commercialRevShare"`
	Disabled                      bool           `abi:"disabled"`
	ExpectMinimumGroupRewardShare uint32         `abi:"expectMinimumGroupRewardShare"`
	ExpectGroupRewardPool         common.Address `abi:"expectGroupRewardPool"`
}

type licenseTermsDataArg struct {
	Terms           pilTermsArg        `abi:"terms"`
	LicensingConfig licensingConfigArg `abi:"licensingConfig"`
}
