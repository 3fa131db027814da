package walletsvc

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/tyler-smith/go-bip32"
	"github.com/tyler-smith/go-bip39"
)

// DeriveAddress derives an EVM deposit address from a mnemonic at the
// given account index, path m/44'/60'/0'/0/{index}. Only the address
// leaves this package; signing happens in the wallet service proper.
func DeriveAddress(mnemonic string, index uint32) (common.Address, error) {
	seed := bip39.NewSeed(mnemonic, "")

	key, err := bip32.NewMasterKey(seed)
	if err != nil {
		return common.Address{}, fmt.Errorf("creating master key: %w", err)
	}

	// m/44'/60'/0'/0/{index}
	steps := []uint32{
		bip32.FirstHardenedChild + 44,
		bip32.FirstHardenedChild + 60,
		bip32.FirstHardenedChild + 0,
		0,
		index,
	}
	for _, step := range steps {
		if key, err = key.NewChildKey(step); err != nil {
			return common.Address{}, fmt.Errorf("deriving child %d: %w", step, err)
		}
	}

	priv, err := crypto.ToECDSA(key.Key)
	if err != nil {
		return common.Address{}, fmt.Errorf("converting to ECDSA: %w", err)
	}

	return crypto.PubkeyToAddress(priv.PublicKey), nil
}
