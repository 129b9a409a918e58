package contract

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hyperledger/fabric-contract-api-go/contractapi"
	"github.com/wolfeidau/partchain/internal/store/fabric"
)

// ContractName is the namespace clients prefix function names with.
const ContractName = "PartChain"

// SmartContract binds the router to a Fabric peer. Every exported method is a
// transaction function; its result is the JSON encoded Response. Failed
// operations return the encoded Response as an error so the peer discards the
// read/write set.
type SmartContract struct {
	contractapi.Contract

	router *Router
}

func NewSmartContract(router *Router) *SmartContract {
	sc := &SmartContract{router: router}
	sc.Name = ContractName
	return sc
}

func (c *SmartContract) call(ctx contractapi.TransactionContextInterface, fn, args string) (string, error) {
	mspID, err := ctx.GetClientIdentity().GetMSPID()
	if err != nil {
		return "", fmt.Errorf("failed to read client MSP ID: %w", err)
	}

	stub := ctx.GetStub()

	tx, err := fabric.TxFromStub(stub, mspID)
	if err != nil {
		return "", err
	}

	resp := c.router.Dispatch(context.Background(), fabric.New(stub), tx, fn, []byte(args))

	b, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("failed to marshal response: %w", err)
	}

	// the peer relays only the message of a failed transaction
	if !resp.OK() {
		return "", errors.New(string(b))
	}

	return string(b), nil
}

func (c *SmartContract) EnrollOrg(ctx contractapi.TransactionContextInterface) (string, error) {
	return c.call(ctx, "EnrollOrg", "")
}

func (c *SmartContract) GetOrgDetails(ctx contractapi.TransactionContextInterface) (string, error) {
	return c.call(ctx, "GetOrgDetails", "")
}

func (c *SmartContract) CreateRequest(ctx contractapi.TransactionContextInterface, args string) (string, error) {
	return c.call(ctx, "CreateRequest", args)
}

func (c *SmartContract) UpdateRequest(ctx contractapi.TransactionContextInterface, args string) (string, error) {
	return c.call(ctx, "UpdateRequest", args)
}

func (c *SmartContract) CreateAsset(ctx contractapi.TransactionContextInterface) (string, error) {
	return c.call(ctx, "CreateAsset", "")
}

func (c *SmartContract) UpdateAsset(ctx contractapi.TransactionContextInterface) (string, error) {
	return c.call(ctx, "UpdateAsset", "")
}

func (c *SmartContract) IsAssetCurrent(ctx contractapi.TransactionContextInterface) (string, error) {
	return c.call(ctx, "IsAssetCurrent", "")
}

func (c *SmartContract) RequestAsset(ctx contractapi.TransactionContextInterface) (string, error) {
	return c.call(ctx, "RequestAsset", "")
}

func (c *SmartContract) ExchangeAssetInfo(ctx contractapi.TransactionContextInterface) (string, error) {
	return c.call(ctx, "ExchangeAssetInfo", "")
}

func (c *SmartContract) ValidateAsset(ctx contractapi.TransactionContextInterface) (string, error) {
	return c.call(ctx, "ValidateAsset", "")
}

func (c *SmartContract) GetAssetDetail(ctx contractapi.TransactionContextInterface, args string) (string, error) {
	return c.call(ctx, "GetAssetDetail", args)
}

func (c *SmartContract) GetAssetEventDetail(ctx contractapi.TransactionContextInterface, args string) (string, error) {
	return c.call(ctx, "GetAssetEventDetail", args)
}

func (c *SmartContract) GetPublicAssetDetail(ctx contractapi.TransactionContextInterface, args string) (string, error) {
	return c.call(ctx, "GetPublicAssetDetail", args)
}

func (c *SmartContract) GetAssetList(ctx contractapi.TransactionContextInterface, args string) (string, error) {
	return c.call(ctx, "GetAssetList", args)
}

func (c *SmartContract) GetAssetHistory(ctx contractapi.TransactionContextInterface, args string) (string, error) {
	return c.call(ctx, "GetAssetHistory", args)
}

func (c *SmartContract) CreateInvestigation(ctx contractapi.TransactionContextInterface) (string, error) {
	return c.call(ctx, "CreateInvestigation", "")
}

func (c *SmartContract) CloseInvestigation(ctx contractapi.TransactionContextInterface, args string) (string, error) {
	return c.call(ctx, "CloseInvestigation", args)
}

func (c *SmartContract) GetPublicInvestigation(ctx contractapi.TransactionContextInterface, args string) (string, error) {
	return c.call(ctx, "GetPublicInvestigation", args)
}

func (c *SmartContract) GetPrivateInvestigation(ctx contractapi.TransactionContextInterface, args string) (string, error) {
	return c.call(ctx, "GetPrivateInvestigation", args)
}

func (c *SmartContract) GetAllInvestigation(ctx contractapi.TransactionContextInterface, args string) (string, error) {
	return c.call(ctx, "GetAllInvestigation", args)
}

func (c *SmartContract) AddOrganisationToInvestigation(ctx contractapi.TransactionContextInterface) (string, error) {
	return c.call(ctx, "AddOrganisationToInvestigation", "")
}

func (c *SmartContract) UpdateOrgInvestigationStatus(ctx contractapi.TransactionContextInterface) (string, error) {
	return c.call(ctx, "UpdateOrgInvestigationStatus", "")
}

func (c *SmartContract) AddSerialNumberCustomer(ctx contractapi.TransactionContextInterface) (string, error) {
	return c.call(ctx, "AddSerialNumberCustomer", "")
}

func (c *SmartContract) ShareInvestigationKey(ctx contractapi.TransactionContextInterface) (string, error) {
	return c.call(ctx, "ShareInvestigationKey", "")
}

func (c *SmartContract) RequestAssetForInvestigation(ctx contractapi.TransactionContextInterface) (string, error) {
	return c.call(ctx, "RequestAssetForInvestigation", "")
}

func (c *SmartContract) ExchangeAssetForInvestigation(ctx contractapi.TransactionContextInterface) (string, error) {
	return c.call(ctx, "ExchangeAssetForInvestigation", "")
}

func (c *SmartContract) DecryptDataForInvestigation(ctx contractapi.TransactionContextInterface, args string) (string, error) {
	return c.call(ctx, "DecryptDataForInvestigation", args)
}

func (c *SmartContract) EncryptDataForInvestigation(ctx contractapi.TransactionContextInterface, args string) (string, error) {
	return c.call(ctx, "EncryptDataForInvestigation", args)
}
