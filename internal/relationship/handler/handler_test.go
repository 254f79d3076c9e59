package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"lineage/internal/relationship/handler/mocks"
	"lineage/internal/relationship/models"
	id "lineage/pkg/domain"
	dErrors "lineage/pkg/domain-errors"
	"lineage/pkg/testutil"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks Service
type RelationshipHandlerSuite struct {
	suite.Suite
	service *mocks.MockService
	router  http.Handler
}

func TestRelationshipHandlerSuite(t *testing.T) {
	suite.Run(t, new(RelationshipHandlerSuite))
}

func (s *RelationshipHandlerSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.service = mocks.NewMockService(ctrl)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := chi.NewRouter()
	New(s.service, logger, testutil.TokenValidator{}, "manager", "admin").Register(r)
	s.router = r
}

func (s *RelationshipHandlerSuite) do(req *http.Request, token string) (int, map[string]any) {
	testutil.WithBearer(req, token)
	rr := testutil.DoRequest(s.router, req)
	var body map[string]any
	_ = json.Unmarshal(rr.Body.Bytes(), &body)
	return rr.Code, body
}

func (s *RelationshipHandlerSuite) TestCreate() {
	a, b := id.NewPersonID(), id.NewPersonID()

	s.Run("maps the body to a create input", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ any, in models.CreateInput) (*models.Relationship, error) {
				assert.Equal(s.T(), a, in.Person1ID)
				assert.Equal(s.T(), b, in.Person2ID)
				assert.Equal(s.T(), models.TypeParent, in.Type)
				assert.Equal(s.T(), models.QualifierAdoptive, in.Qualifier)
				return &models.Relationship{ID: id.NewRelationshipID(), Person1ID: a, Person2ID: b, Type: in.Type}, nil
			})
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/relationships", map[string]string{
			"person1_id": a.String(), "person2_id": b.String(),
			"relationship_type": "parent", "relationship_qualifier": "adoptive",
		})
		code, body := s.do(req, testutil.ManagerToken)
		s.Equal(http.StatusCreated, code)
		s.Equal("parent", body["relationship_type"])
	})

	s.Run("unknown type is a bad request", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/relationships", map[string]string{
			"person1_id": a.String(), "person2_id": b.String(), "relationship_type": "godparent",
		})
		code, body := s.do(req, testutil.ManagerToken)
		s.Equal(http.StatusBadRequest, code)
		s.Equal(string(dErrors.CodeInvalidInput), body["error"])
	})

	s.Run("service errors map to statuses", func() {
		cases := []struct {
			code   dErrors.Code
			status int
		}{
			{dErrors.CodePolicyViolation, http.StatusUnprocessableEntity},
			{dErrors.CodeConflict, http.StatusConflict},
			{dErrors.CodeCircularRelationship, http.StatusConflict},
			{dErrors.CodeValidation, http.StatusUnprocessableEntity},
			{dErrors.CodeNotFound, http.StatusNotFound},
			{dErrors.CodeInternal, http.StatusInternalServerError},
		}
		for _, tc := range cases {
			s.service.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, dErrors.New(tc.code, "rejected"))
			req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/relationships", map[string]string{
				"person1_id": a.String(), "person2_id": b.String(), "relationship_type": "sibling",
			})
			code, body := s.do(req, testutil.AdminToken)
			s.Equal(tc.status, code, string(tc.code))
			s.Equal(string(tc.code), body["error"])
		}
	})

	s.Run("cycle rejections list the path", func() {
		s.service.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil,
			dErrors.WithReasons(dErrors.CodeCircularRelationship, []string{"A -> B -> A"}))
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/relationships", map[string]string{
			"person1_id": a.String(), "person2_id": b.String(), "relationship_type": "parent",
		})
		rr := testutil.DoRequest(s.router, testutil.WithBearer(req, testutil.ManagerToken))
		testutil.AssertStatusAndError(s.T(), rr, http.StatusConflict, string(dErrors.CodeCircularRelationship))
		testutil.AssertReasons(s.T(), rr, "A -> B -> A")
	})

	s.Run("readers cannot create", func() {
		req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/relationships", map[string]string{
			"person1_id": a.String(), "person2_id": b.String(), "relationship_type": "spouse",
		})
		code, _ := s.do(req, testutil.ReaderToken)
		s.Equal(http.StatusForbidden, code)
	})
}

func (s *RelationshipHandlerSuite) TestUpdateAndDelete() {
	relID := id.NewRelationshipID()

	s.service.EXPECT().Update(gomock.Any(), relID, gomock.Any()).DoAndReturn(
		func(_ any, _ id.RelationshipID, in models.UpdateInput) (*models.Relationship, error) {
			require.NotNil(s.T(), in.Qualifier)
			assert.Equal(s.T(), models.QualifierStep, *in.Qualifier)
			assert.Nil(s.T(), in.Type)
			return &models.Relationship{ID: relID, Type: models.TypeParent, Qualifier: *in.Qualifier}, nil
		})
	req := testutil.NewJSONRequest(s.T(), http.MethodPatch, "/relationships/"+relID.String(), map[string]string{
		"relationship_qualifier": "step",
	})
	code, _ := s.do(req, testutil.ManagerToken)
	s.Equal(http.StatusOK, code)

	s.service.EXPECT().Delete(gomock.Any(), relID).Return(nil)
	code, body := s.do(testutil.NewRequest(s.T(), http.MethodDelete, "/relationships/"+relID.String()), testutil.ManagerToken)
	s.Equal(http.StatusOK, code)
	s.Equal(true, body["deleted"])
}

func (s *RelationshipHandlerSuite) TestList() {
	personID := id.NewPersonID()
	s.service.EXPECT().List(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ any, q models.ListQuery) (*models.Page, error) {
			assert.Equal(s.T(), 2, q.Page)
			assert.Equal(s.T(), 5, q.PageSize)
			assert.Equal(s.T(), []models.Type{models.TypeParent, models.TypeSpouse}, q.Types)
			assert.Equal(s.T(), models.StatusActive, q.Status)
			require.NotNil(s.T(), q.PersonID)
			assert.Equal(s.T(), personID, *q.PersonID)
			require.NotNil(s.T(), q.DateFrom)
			assert.Equal(s.T(), 1900, q.DateFrom.Year())
			return &models.Page{Items: []*models.Relationship{}, Page: 2, PageSize: 5}, nil
		})

	path := "/relationships?page=2&page_size=5&type=parent,spouse&status=active&person_id=" + personID.String() + "&from=1900"
	code, body := s.do(testutil.NewRequest(s.T(), http.MethodGet, path), testutil.ReaderToken)
	s.Equal(http.StatusOK, code)
	s.EqualValues(2, body["page"])

	code, _ = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/relationships?page=two"), testutil.ReaderToken)
	s.Equal(http.StatusBadRequest, code)
}

func (s *RelationshipHandlerSuite) TestStaticRoutesWinOverIDs() {
	s.service.EXPECT().ListParentChild(gomock.Any()).Return([]*models.Relationship{}, nil)
	code, _ := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/relationships/parent-child"), testutil.ReaderToken)
	s.Equal(http.StatusOK, code)

	s.service.EXPECT().ListSpouses(gomock.Any()).Return([]*models.Relationship{}, nil)
	code, _ = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/relationships/spouses"), testutil.ReaderToken)
	s.Equal(http.StatusOK, code)

	s.service.EXPECT().ListEnded(gomock.Any()).Return([]*models.Relationship{}, nil)
	code, _ = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/relationships/ended"), testutil.ReaderToken)
	s.Equal(http.StatusOK, code)
}

func (s *RelationshipHandlerSuite) TestBetween() {
	a, b := id.NewPersonID(), id.NewPersonID()
	s.service.EXPECT().ListBetweenPersons(gomock.Any(), a, b).Return([]*models.Relationship{{Person1ID: a, Person2ID: b}}, nil)
	code, body := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/relationships/between?person1="+a.String()+"&person2="+b.String()), testutil.ReaderToken)
	s.Equal(http.StatusOK, code)
	s.Len(body["items"], 1)

	code, _ = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/relationships/between?person1="+a.String()), testutil.ReaderToken)
	s.Equal(http.StatusBadRequest, code)
}

func (s *RelationshipHandlerSuite) TestPath() {
	a, b := id.NewPersonID(), id.NewPersonID()

	s.service.EXPECT().FindRelationshipPath(gomock.Any(), a, b, 0).Return([]models.PathStep{}, nil)
	code, body := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/relationships/path?from="+a.String()+"&to="+b.String()), testutil.ReaderToken)
	s.Equal(http.StatusOK, code)
	s.Equal(false, body["found"])

	s.service.EXPECT().FindRelationshipPath(gomock.Any(), a, b, 2).Return([]models.PathStep{{From: a, To: b, Label: "spouse of"}}, nil)
	code, body = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/relationships/path?from="+a.String()+"&to="+b.String()+"&max_depth=2"), testutil.ReaderToken)
	s.Equal(http.StatusOK, code)
	s.Equal(true, body["found"])
}

func (s *RelationshipHandlerSuite) TestTrees() {
	root := id.NewPersonID()

	s.service.EXPECT().GetAncestors(gomock.Any(), root, 3).Return(&models.TreeNode{Person: models.PersonSummary{ID: root}}, nil)
	code, _ := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/persons/"+root.String()+"/ancestors"), testutil.ReaderToken)
	s.Equal(http.StatusOK, code)

	s.service.EXPECT().GetDescendants(gomock.Any(), root, 0).Return(&models.TreeNode{Person: models.PersonSummary{ID: root}}, nil)
	code, _ = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/persons/"+root.String()+"/descendants?generations=0"), testutil.ReaderToken)
	s.Equal(http.StatusOK, code)

	s.service.EXPECT().GetAncestors(gomock.Any(), root, 2).Return(nil, dErrors.New(dErrors.CodeNotFound, "person not found"))
	code, _ = s.do(testutil.NewRequest(s.T(), http.MethodGet, "/persons/"+root.String()+"/ancestors?generations=2"), testutil.ReaderToken)
	s.Equal(http.StatusNotFound, code)
}

func (s *RelationshipHandlerSuite) TestDateRange() {
	s.service.EXPECT().ListByDateRange(gomock.Any(), gomock.Not(gomock.Nil()), gomock.Nil()).Return([]*models.Relationship{}, nil)
	code, _ := s.do(testutil.NewRequest(s.T(), http.MethodGet, "/relationships/date-range?from=1950-01-01"), testutil.ReaderToken)
	s.Equal(http.StatusOK, code)
}
