package zns

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	zcommon "github.com/everFinance/zns/common"
	"github.com/everFinance/zns/schema"
	"github.com/gin-gonic/gin"
)

func (s *Zns) runAPI(port string) {
	s.apiSrv = &http.Server{Addr: port, Handler: s.router(s.engine)}
	log.Info("Starting api server", "listen", port)
	go func() {
		if err := s.apiSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			panic(err)
		}
	}()
}

func (s *Zns) router(r *gin.Engine) *gin.Engine {
	r.Use(zcommon.CORSMiddleware())
	v1 := r.Group("/")
	{
		v1.GET("/session", s.getSession)
		v1.GET("/domain/:name", s.getDomain)
		v1.GET("/tx/:hash", s.getTx)
		v1.GET("/history/:account", s.getHistory)

		// writes
		v2 := r.Group("/")
		{
			if s.limit > 0 {
				v2.Use(zcommon.LimiterMiddleware(s.limit, "M", s.isWhiteListed))
			}
			v2.POST("/connect", s.connect)
			v2.POST("/disconnect", s.disconnect)
			v2.POST("/domain/:name/register", s.execute(schema.ActionRegister))
			v2.POST("/domain/:name/renew", s.execute(schema.ActionRenew))
			v2.POST("/domain/:name/transfer", s.execute(schema.ActionTransfer))
		}
	}
	return r
}

func (s *Zns) isWhiteListed(originOrIp string) bool {
	return s.config != nil && s.config.IsWhiteListed(originOrIp)
}

func (s *Zns) connect(c *gin.Context) {
	if _, err := s.sessions.Connect(c.Request.Context()); err != nil {
		errorResponse(c, err)
		return
	}
	s.getSession(c)
}

func (s *Zns) disconnect(c *gin.Context) {
	s.sessions.Disconnect()
	c.JSON(http.StatusOK, schema.RespSession{State: string(s.sessions.State())})
}

func (s *Zns) getSession(c *gin.Context) {
	resp := schema.RespSession{State: string(s.sessions.State())}
	sess := s.sessions.CurrentSession()
	if sess == nil {
		c.JSON(http.StatusOK, resp)
		return
	}
	network := s.sessions.Network()
	resp.Account = sess.Account.Hex()
	resp.ChainID = sess.ChainID
	resp.ChainName = network.ChainName

	// balances are best effort; the session itself is still valid
	b, err := s.workflow.Balances(c.Request.Context())
	if err != nil {
		log.Warn("s.workflow.Balances", "err", err, "account", resp.Account)
	} else {
		resp.NativeSymbol = b.NativeSymbol
		resp.NativeAmount = b.NativeAmount()
		resp.TokenSymbol = b.TokenSymbol
		resp.TokenAmount = b.TokenAmount()
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Zns) getDomain(c *gin.Context) {
	ctx := c.Request.Context()
	res, err := s.workflow.Resolve(ctx, c.Param("name"))
	if err != nil {
		errorResponse(c, err)
		return
	}
	sess := s.sessions.CurrentSession()
	now := s.workflow.now().Unix()
	resp := schema.RespDomain{
		DomainQueryResult: *res,
		Label:             res.Label(),
		DaysRemaining:     res.DaysRemaining(now),
		Expired:           res.IsExpired(now),
		Actionable:        res.Actionable(now),
	}
	if sess != nil {
		resp.Status = res.Status(sess.Account, now)
	}
	if price, decimals, symbol, err := s.workflow.Price(ctx); err == nil {
		resp.Price = FormatAmount(price, decimals)
		resp.TokenSymbol = symbol
	} else {
		log.Warn("s.workflow.Price", "err", err)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Zns) execute(action schema.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := ExecuteRequest{Name: c.Param("name"), Action: action}
		if action == schema.ActionTransfer {
			body := schema.ReqTransfer{}
			if err := c.ShouldBindJSON(&body); err != nil {
				c.JSON(http.StatusBadRequest, schema.RespErr{Err: err.Error()})
				return
			}
			req.Target = body.Target
			// the caller answers the confirmation up front
			req.Confirm = func(_ context.Context, _ string) bool { return body.Confirm }
		}
		out, err := s.workflow.Execute(c.Request.Context(), req)
		if err != nil {
			outcomeErrorResponse(c, out)
			return
		}
		c.JSON(http.StatusOK, schema.RespOutcome{Outcome: *out, Status: "success"})
	}
}

func (s *Zns) getTx(c *gin.Context) {
	raw := c.Param("hash")
	by, err := hexutil.Decode(raw)
	if err != nil || len(by) != common.HashLength {
		c.JSON(http.StatusBadRequest, schema.RespErr{Err: "tx hash incorrect"})
		return
	}
	tx, err := s.workflow.TxStatus(c.Request.Context(), common.BytesToHash(by))
	if err != nil {
		errorResponse(c, err)
		return
	}
	c.JSON(http.StatusOK, tx)
}

func (s *Zns) getHistory(c *gin.Context) {
	account := c.Param("account")
	if !common.IsHexAddress(account) {
		errorResponse(c, schema.ErrInvalidAddress)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(schema.DefaultHistoryLimit)))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, schema.RespErr{Err: "limit incorrect"})
		return
	}
	if limit > schema.MaxHistoryLimit {
		limit = schema.MaxHistoryLimit
	}
	if s.wdb == nil {
		c.JSON(http.StatusOK, []schema.OutcomeRecord{})
		return
	}
	records, err := s.wdb.GetOutcomes(common.HexToAddress(account), limit)
	if err != nil {
		internalErrorResponse(c, err.Error())
		return
	}
	c.JSON(http.StatusOK, records)
}

// errorResponse writes the error kind with the status that fits it. A hash is
// included when a transaction was already submitted.
func errorResponse(c *gin.Context, err error, txHash ...common.Hash) {
	resp := schema.RespErr{Err: schema.KindOf(err)}
	if len(txHash) > 0 && txHash[0] != (common.Hash{}) {
		resp.TxHash = txHash[0].Hex()
	}
	c.JSON(statusOf(err), resp)
}

// outcomeErrorResponse reports a failed run with the last submitted hash as
// txHash, so a timed-out approval can still be looked up via /tx/:hash.
func outcomeErrorResponse(c *gin.Context, out *schema.Outcome) {
	resp := schema.RespErr{Err: schema.KindOf(out.Err)}
	if last := out.LastHash(); last != (common.Hash{}) {
		resp.TxHash = last.Hex()
	}
	if out.ApproveHash != (common.Hash{}) {
		resp.ApproveHash = out.ApproveHash.Hex()
	}
	c.JSON(statusOf(out.Err), resp)
}

func internalErrorResponse(c *gin.Context, err string) {
	c.JSON(http.StatusInternalServerError, schema.RespErr{
		Err: err,
	})
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, schema.ErrInvalidDomainFormat),
		errors.Is(err, schema.ErrInvalidAddress),
		errors.Is(err, schema.ErrUserCancelled),
		errors.Is(err, schema.ErrUserRejected):
		return http.StatusBadRequest
	case errors.Is(err, schema.ErrNoSession),
		errors.Is(err, schema.ErrNoAccount):
		return http.StatusUnauthorized
	case errors.Is(err, schema.ErrInsufficientBalance):
		return http.StatusPaymentRequired
	case errors.Is(err, schema.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, schema.ErrNotExist):
		return http.StatusNotFound
	case errors.Is(err, schema.ErrDomainUnavailable),
		errors.Is(err, schema.ErrOperationInFlight):
		return http.StatusConflict
	case errors.Is(err, schema.ErrTransactionReverted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, schema.ErrNetworkMismatch),
		errors.Is(err, schema.ErrNetworkSwitchFailed),
		errors.Is(err, schema.ErrUnknownChain):
		return http.StatusBadGateway
	case errors.Is(err, schema.ErrNoWalletProvider):
		return http.StatusServiceUnavailable
	case errors.Is(err, schema.ErrTimedOut):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}
