package keystore

import "errors"

// ErrDecrypt is returned by DecryptKey when the passphrase is wrong or the
// keyfile's MAC does not verify.
var ErrDecrypt = errors.New("keystore: could not decrypt key with given passphrase")
