package vyra

import "fmt"

// NetworkConfig is the static contract deployment record for one network.
// Switching networks reconstructs every coordinator against a new record.
type NetworkConfig struct {
	// Name is the human-readable network name.
	Name string

	// ChainID is the EIP-155 chain identifier, bound into every digest.
	ChainID int64

	// RPCURL is the default JSON-RPC endpoint.
	RPCURL string

	// BlockExplorer is the explorer base URL (empty for local networks).
	BlockExplorer string

	// TokenAddress is the VYR token contract.
	TokenAddress string

	// PaymasterAddress is the gas-sponsorship contract.
	PaymasterAddress string

	// POSAddress is the point-of-sale/invoice contract.
	POSAddress string

	// BridgeAddress is the L1↔L2 bridge contract.
	BridgeAddress string

	// EntryPointAddress is the ERC-4337 entry point.
	EntryPointAddress string
}

// Predefined network configurations.
var (
	// Mainnet is the Ethereum mainnet deployment.
	Mainnet = NetworkConfig{
		Name:              "Ethereum Mainnet",
		ChainID:           1,
		RPCURL:            "https://eth.llamarpc.com",
		BlockExplorer:     "https://etherscan.io",
		TokenAddress:      "0x0000000000000000000000000000000000000000",
		PaymasterAddress:  "0x0000000000000000000000000000000000000000",
		POSAddress:        "0x0000000000000000000000000000000000000000",
		BridgeAddress:     "0x0000000000000000000000000000000000000000",
		EntryPointAddress: "0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789",
	}

	// Sepolia is the Sepolia testnet deployment.
	Sepolia = NetworkConfig{
		Name:              "Sepolia Testnet",
		ChainID:           11155111,
		RPCURL:            "https://rpc.sepolia.org",
		BlockExplorer:     "https://sepolia.etherscan.io",
		TokenAddress:      "0x0000000000000000000000000000000000000000",
		PaymasterAddress:  "0x0000000000000000000000000000000000000000",
		POSAddress:        "0x0000000000000000000000000000000000000000",
		BridgeAddress:     "0x0000000000000000000000000000000000000000",
		EntryPointAddress: "0x5FF137D4b0FDCD49DcA30c7CF57E578a026d2789",
	}

	// LocalDev is a local development chain with deterministic deployments.
	LocalDev = NetworkConfig{
		Name:              "Local Development",
		ChainID:           31337,
		RPCURL:            "http://localhost:8545",
		TokenAddress:      "0x5FbDB2315678afecb367f032d93F642f64180aa3",
		PaymasterAddress:  "0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512",
		POSAddress:        "0x9fE46736679d2D9a65F0992F2272dE9f3c7fa6e0",
		BridgeAddress:     "0xCf7Ed3AccA5a467e9e704C703E8D87F634fB0Fc9",
		EntryPointAddress: "0x0165878A594ca255338adfa4d48449f69242Eb8F",
	}
)

// networkByChainID maps chain IDs to predefined configurations.
var networkByChainID = map[int64]NetworkConfig{
	Mainnet.ChainID:  Mainnet,
	Sepolia.ChainID:  Sepolia,
	LocalDev.ChainID: LocalDev,
}

// GetNetworkConfig returns the predefined configuration for a chain ID.
func GetNetworkConfig(chainID int64) (NetworkConfig, error) {
	cfg, ok := networkByChainID[chainID]
	if !ok {
		return NetworkConfig{}, fmt.Errorf("%w: chain id %d", ErrInvalidNetwork, chainID)
	}
	return cfg, nil
}

// Validate checks that the configuration is usable: positive chain ID and
// well-formed contract addresses.
func (c NetworkConfig) Validate() error {
	if c.ChainID <= 0 {
		return fmt.Errorf("%w: chain id %d", ErrInvalidNetwork, c.ChainID)
	}
	for _, addr := range []string{
		c.TokenAddress, c.PaymasterAddress, c.POSAddress, c.BridgeAddress, c.EntryPointAddress,
	} {
		if err := ValidateAddress(addr); err != nil {
			return err
		}
	}
	return nil
}
