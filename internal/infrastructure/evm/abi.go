package evm

// Minimal ABI fragments for the contracts this adapter talks to. The HTLC
// contract holds ERC-20 value under a sha256 hashlock and an absolute
// timelock; claim and refund are its only two exits.

const erc20ABI = `[
	{
		"constant": true,
		"inputs": [{"name": "owner", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [
			{"name": "owner", "type": "address"},
			{"name": "spender", "type": "address"}
		],
		"name": "allowance",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	}
]`

const htlcABI = `[
	{
		"inputs": [
			{"name": "paymentHash", "type": "bytes32"},
			{"name": "timelock", "type": "uint256"},
			{"name": "tokenAddress", "type": "address"},
			{"name": "amount", "type": "uint256"}
		],
		"name": "createLock",
		"outputs": [{"name": "contractId", "type": "bytes32"}],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "contractId", "type": "bytes32"},
			{"name": "preimage", "type": "bytes32"}
		],
		"name": "claim",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"name": "contractId", "type": "bytes32"}],
		"name": "refund",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	},
	{
		"inputs": [{"name": "contractId", "type": "bytes32"}],
		"name": "getContract",
		"outputs": [
			{"name": "sender", "type": "address"},
			{"name": "tokenAddress", "type": "address"},
			{"name": "amount", "type": "uint256"},
			{"name": "paymentHash", "type": "bytes32"},
			{"name": "timelock", "type": "uint256"},
			{"name": "withdrawn", "type": "bool"},
			{"name": "refunded", "type": "bool"},
			{"name": "preimage", "type": "bytes32"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"anonymous": false,
		"inputs": [
			{"indexed": true, "name": "contractId", "type": "bytes32"},
			{"indexed": true, "name": "sender", "type": "address"},
			{"indexed": false, "name": "tokenAddress", "type": "address"},
			{"indexed": false, "name": "amount", "type": "uint256"},
			{"indexed": false, "name": "paymentHash", "type": "bytes32"},
			{"indexed": false, "name": "timelock", "type": "uint256"}
		],
		"name": "LockCreated",
		"type": "event"
	}
]`
